package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newPullCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the external feed once into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			if cfg.Feed.URL == "" {
				return errors.New("feed.url is not configured")
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Feed.RunTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Feed.RunTimeout)
				defer cancel()
			}

			stats, err := a.newPullService(cfg.Feed).Pull(ctx)
			if err != nil {
				logger.Error("pull failed", "error", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, invalid %d, created %d, updated %d in %s\n",
				stats.Fetched, stats.Invalid, stats.Created, stats.Updated, stats.Duration)
			return nil
		},
	}
}
