package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"content_metrics/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "contentapi",
		Short:         "Collect social content metrics and serve them over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	load := func() (*config.Config, *slog.Logger, error) {
		logger := setupLogger("info")
		cfg, err := config.Load(configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, setupLogger(cfg.LogLevel), nil
	}

	rootCmd.AddCommand(newServeCmd(load))
	rootCmd.AddCommand(newPullCmd(load))

	return rootCmd
}

type loader func() (*config.Config, *slog.Logger, error)

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
