package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"content_metrics/internal/api"
	"content_metrics/internal/scheduler"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when the feed is enabled, the pull scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := api.NewHandler(a.contents, a.ingest, a.db, logger)
			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      api.NewServer(handler, logger, cfg.Server.MaxBodyBytes),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.Info("http server listening", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down http server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if cfg.Feed.Enabled {
				sched := scheduler.NewScheduler(
					a.newPullService(cfg.Feed),
					cfg.Feed.Interval,
					cfg.Feed.RunTimeout,
					logger,
				)
				g.Go(func() error {
					if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				logger.Error("server error", "error", err)
				return err
			}
			logger.Info("stopped")
			return nil
		},
	}
}
