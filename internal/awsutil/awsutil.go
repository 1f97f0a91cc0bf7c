package awsutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/smithy-go"

	"Dormant/internal/config"
)

const imdsTimeout = 2 * time.Second

// RegionLookup returns the region of the host, typically from instance metadata.
type RegionLookup func(ctx context.Context) (string, error)

// IMDSRegion reads the region from the EC2 instance metadata service.
func IMDSRegion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, imdsTimeout)
	defer cancel()

	out, err := imds.New(imds.Options{}).GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("failed to read region from instance metadata: %w", err)
	}
	return out.Region, nil
}

// ResolveRegion picks the configured region, then the metadata region when
// enabled, then the fallback.
func ResolveRegion(ctx context.Context, cfg config.AWSConfig, lookup RegionLookup, logger *slog.Logger) string {
	if cfg.Region != "" {
		return cfg.Region
	}
	if cfg.UseIMDSRegion && lookup != nil {
		region, err := lookup(ctx)
		if err == nil && region != "" {
			return region
		}
		logger.Warn("falling back to default region", "region", cfg.FallbackRegion, "error", err)
	}
	return cfg.FallbackRegion
}

// LoadConfig loads the shared AWS configuration for one region. Every provider
// in a pass is built from the same config.
func LoadConfig(ctx context.Context, cfg config.AWSConfig, logger *slog.Logger) (aws.Config, error) {
	region := ResolveRegion(ctx, cfg, IMDSRegion, logger)

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("connected to region", "region", region)
	return awsCfg, nil
}

// ErrorCode returns the API error code carried by err, or "unknown".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "unknown"
}
