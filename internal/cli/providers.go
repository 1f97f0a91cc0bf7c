package cli

import (
	"context"
	"fmt"
	"log/slog"

	"Dormant/internal/awsutil"
	"Dormant/internal/config"
	"Dormant/internal/provider"
	"Dormant/internal/provider/ec2"
	"Dormant/internal/provider/rds"
)

// providerFactory builds the providers of a pass, compute first.
type providerFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]provider.Provider, error)

var newProviders providerFactory = awsProviders

func awsProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]provider.Provider, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, cfg.AWS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}

	return []provider.Provider{
		ec2.New(awsCfg, logger),
		rds.New(awsCfg, logger),
	}, nil
}

// enabledProviders drops providers whose kind is switched off
func enabledProviders(cfg *config.Config, providers []provider.Provider) []provider.Provider {
	var out []provider.Provider
	for _, p := range providers {
		switch p.Kind() {
		case provider.KindCompute:
			if cfg.EC2.Enabled {
				out = append(out, p)
			}
		case provider.KindDatabase:
			if cfg.RDS.Enabled {
				out = append(out, p)
			}
		}
	}
	return out
}

func closeProviders(providers []provider.Provider, logger *slog.Logger) {
	for _, p := range providers {
		if err := p.Close(); err != nil {
			logger.Warn("failed to close provider", "provider", p.Name(), "error", err)
		}
	}
}
