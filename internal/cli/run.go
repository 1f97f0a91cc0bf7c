package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"Dormant/internal/config"
	"Dormant/internal/controller"
	"Dormant/internal/metrics"
)

func newRunCommand(configPath *string) *cobra.Command {
	var (
		output  string
		dryRun  bool
		trigger string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate every instance once",
		Long: `run performs a single evaluation pass: every enabled resource kind is
listed, missing schedule tags are provisioned and instances whose start or
stop hour matches the current hour are started or stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validOutput(output) {
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", output)
			}
			if trigger != "" && !json.Valid([]byte(trigger)) {
				return fmt.Errorf("--trigger must be a JSON document")
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dryRun {
				cfg.DryRun = true
			}

			logger := setupLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			logger.Info("starting dormant",
				"version", Version,
				"time_mode", cfg.TimeMode(),
				"dry_run", cfg.DryRun,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			providers, err := newProviders(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProviders(providers, logger)

			registry := prometheus.NewRegistry()
			met := metrics.NewMetrics(registry)
			met.ControllerInfo.WithLabelValues(Version, string(cfg.TimeMode()), modeString(cfg.DryRun)).Set(1)

			ctrl, err := controller.New(cfg, providers, met, nil, logger)
			if err != nil {
				return err
			}

			summary, err := ctrl.RunPass(ctx, []byte(trigger))
			if err != nil {
				return fmt.Errorf("pass did not run: %w", err)
			}
			return writeSummary(cmd.OutOrStdout(), output, summary)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log decisions without starting, stopping or tagging instances")
	cmd.Flags().StringVar(&trigger, "trigger", "", "Trigger payload recorded with the pass (JSON)")

	return cmd
}
