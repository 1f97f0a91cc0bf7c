package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"Dormant/internal/analytics"
	"Dormant/internal/api"
	"Dormant/internal/config"
	"Dormant/internal/controller"
	"Dormant/internal/leaderelection"
	"Dormant/internal/metrics"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a pass every hour and serve the HTTP API",
		Long: `serve runs one evaluation pass shortly after every full hour and exposes
health, metrics and the latest pass summary over HTTP. Passes can also be
triggered with POST /api/v1/passes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	// Setup structured logging
	logger := setupLogger(os.Stdout, cfg.LogLevel)
	logger.Info("starting dormant",
		"version", Version,
		"time_mode", cfg.TimeMode(),
		"dry_run", cfg.DryRun,
	)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	met := metrics.NewMetrics(registry)
	met.ControllerInfo.WithLabelValues(Version, string(cfg.TimeMode()), modeString(cfg.DryRun)).Set(1)

	// Initialize providers
	providers, err := newProviders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProviders(providers, logger)

	tracker := analytics.NewTracker()

	ctrl, err := controller.New(cfg, providers, met, tracker, logger)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	// Start API server
	apiServer := api.New(cfg, enabledProviders(cfg, providers), ctrl, tracker, registry, logger)
	errCh := make(chan error, 2)
	go func() {
		if err := apiServer.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Start controller with leader election
	le := leaderelection.New(cfg.LeaderElection, logger)
	go func() {
		errCh <- le.Run(ctx,
			func(ctx context.Context) {
				logger.Info("became leader, starting controller")
				met.LeaderElection.Set(1)
				if err := ctrl.Run(ctx); err != nil {
					logger.Error("controller error", "error", err)
				}
			},
			func(ctx context.Context) {
				logger.Info("stopped being leader")
				met.LeaderElection.Set(0)
			},
		)
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutdown complete")
	return nil
}
