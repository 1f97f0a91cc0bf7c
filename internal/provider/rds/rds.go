package rds

import (
	"context"
	"fmt"
	"log/slog"

	"Dormant/internal/provider"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
)

// API is the subset of the RDS client used by the provider
type API interface {
	rds.DescribeDBInstancesAPIClient
	ListTagsForResource(ctx context.Context, params *rds.ListTagsForResourceInput, optFns ...func(*rds.Options)) (*rds.ListTagsForResourceOutput, error)
	AddTagsToResource(ctx context.Context, params *rds.AddTagsToResourceInput, optFns ...func(*rds.Options)) (*rds.AddTagsToResourceOutput, error)
	StartDBInstance(ctx context.Context, params *rds.StartDBInstanceInput, optFns ...func(*rds.Options)) (*rds.StartDBInstanceOutput, error)
	StopDBInstance(ctx context.Context, params *rds.StopDBInstanceInput, optFns ...func(*rds.Options)) (*rds.StopDBInstanceOutput, error)
	DescribeAccountAttributes(ctx context.Context, params *rds.DescribeAccountAttributesInput, optFns ...func(*rds.Options)) (*rds.DescribeAccountAttributesOutput, error)
}

type RDSProvider struct {
	client API
	logger *slog.Logger
}

// New creates a new RDS provider from a loaded AWS config
func New(awsCfg aws.Config, logger *slog.Logger) *RDSProvider {
	return NewWithClient(rds.NewFromConfig(awsCfg), logger)
}

// NewWithClient creates a provider around an existing client
func NewWithClient(client API, logger *slog.Logger) *RDSProvider {
	return &RDSProvider{
		client: client,
		logger: logger.With("provider", "rds"),
	}
}

func (p *RDSProvider) Name() string {
	return "rds"
}

func (p *RDSProvider) Kind() provider.Kind {
	return provider.KindDatabase
}

func (p *RDSProvider) ListInstances(ctx context.Context) ([]*provider.Instance, error) {
	var instances []*provider.Instance
	paginator := rds.NewDescribeDBInstancesPaginator(p.client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe db instances: %w", err)
		}
		for i := range page.DBInstances {
			instances = append(instances, toInstance(&page.DBInstances[i]))
		}
	}

	p.logger.Debug("listed db instances", "count", len(instances))
	return instances, nil
}

// Tags looks the tag list up by ARN; DescribeDBInstances results are not relied on for tags.
func (p *RDSProvider) Tags(ctx context.Context, inst *provider.Instance) (map[string]string, error) {
	out, err := p.client.ListTagsForResource(ctx, &rds.ListTagsForResourceInput{
		ResourceName: aws.String(inst.ARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", inst.ID, err)
	}

	tags := make(map[string]string, len(out.TagList))
	for _, tag := range out.TagList {
		if tag.Key == nil {
			continue
		}
		tags[*tag.Key] = aws.ToString(tag.Value)
	}
	return tags, nil
}

func (p *RDSProvider) WriteTag(ctx context.Context, inst *provider.Instance, key, value string) error {
	_, err := p.client.AddTagsToResource(ctx, &rds.AddTagsToResourceInput{
		ResourceName: aws.String(inst.ARN),
		Tags: []types.Tag{
			{Key: aws.String(key), Value: aws.String(value)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to tag db instance %s: %w", inst.ID, err)
	}
	return nil
}

func (p *RDSProvider) Start(ctx context.Context, inst *provider.Instance) error {
	_, err := p.client.StartDBInstance(ctx, &rds.StartDBInstanceInput{
		DBInstanceIdentifier: aws.String(inst.ID),
	})
	if err != nil {
		return fmt.Errorf("failed to start db instance %s: %w", inst.ID, err)
	}
	return nil
}

func (p *RDSProvider) Stop(ctx context.Context, inst *provider.Instance) error {
	_, err := p.client.StopDBInstance(ctx, &rds.StopDBInstanceInput{
		DBInstanceIdentifier: aws.String(inst.ID),
	})
	if err != nil {
		return fmt.Errorf("failed to stop db instance %s: %w", inst.ID, err)
	}
	return nil
}

func (p *RDSProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.DescribeAccountAttributes(ctx, &rds.DescribeAccountAttributesInput{}); err != nil {
		return fmt.Errorf("RDS health check failed: %w", err)
	}
	return nil
}

func (p *RDSProvider) Close() error {
	return nil
}

func toInstance(db *types.DBInstance) *provider.Instance {
	return &provider.Instance{
		ID:    aws.ToString(db.DBInstanceIdentifier),
		ARN:   aws.ToString(db.DBInstanceArn),
		Kind:  provider.KindDatabase,
		State: aws.ToString(db.DBInstanceStatus),
	}
}
