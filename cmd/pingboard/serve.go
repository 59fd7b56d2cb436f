package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pingboard"
	"github.com/jpalmerr/pingboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the Pingboard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the Pingboard dashboard server.

The server will:
  - Load targets and settings from the specified config file
  - Probe every target immediately, then once per poll interval
  - Serve the dashboard UI and JSON API on the configured port

If the config cannot be loaded, the error is logged and the server keeps
running with no targets and default settings. Pass --strict to exit instead.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  pingboard serve -c config.yaml
  pingboard serve --config /app/config/ips.json --strict`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Bool("strict", false, "exit when the config cannot be loaded")
	serveCmd.Flags().Bool("debug", false, "log every probe result")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	strict, _ := cmd.Flags().GetBool("strict")
	debug, _ := cmd.Flags().GetBool("debug")

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	opts, err := serveOptions(configFile, strict, logger)
	if err != nil {
		return err
	}
	opts = append(opts,
		pingboard.WithLogger(logger),
		pingboard.WithVersion(version),
	)

	pb, err := pingboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create Pingboard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- pb.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// serveOptions loads configFile into SDK options.
//
// Unless strict is set, a config that cannot be loaded is logged and
// replaced by no options at all, so the server starts with zero targets.
func serveOptions(configFile string, strict bool, logger *slog.Logger) ([]pingboard.Option, error) {
	cfg, err := config.Load(configFile)
	if err == nil {
		for _, w := range cfg.Warnings {
			logger.Warn("config entry skipped", "path", configFile, "reason", w)
		}
	}

	var opts []pingboard.Option
	if err == nil {
		opts, err = config.BuildOptions(cfg)
	}

	if err != nil {
		if strict {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		logger.Error("failed to load config, continuing with no targets",
			"path", configFile,
			"error", err,
		)
		return nil, nil
	}

	logger.Info("config loaded",
		"targets", len(cfg.Targets),
		"grids", len(cfg.Grids),
		"skipped", len(cfg.Warnings),
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"max_concurrency", cfg.MaxConcurrency,
	)
	return opts, nil
}
