package ec2

import (
	"context"
	"fmt"
	"log/slog"

	"Dormant/internal/provider"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// API is the subset of the EC2 client used by the provider
type API interface {
	ec2.DescribeInstancesAPIClient
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// schedulableStates are the instance states the scheduler looks at; shutting
// down and terminated instances can be neither started nor stopped.
var schedulableStates = []string{
	string(types.InstanceStateNamePending),
	string(types.InstanceStateNameRunning),
	string(types.InstanceStateNameStopping),
	string(types.InstanceStateNameStopped),
}

type EC2Provider struct {
	client API
	logger *slog.Logger
}

// New creates a new EC2 provider from a loaded AWS config
func New(awsCfg aws.Config, logger *slog.Logger) *EC2Provider {
	return NewWithClient(ec2.NewFromConfig(awsCfg), logger)
}

// NewWithClient creates a provider around an existing client
func NewWithClient(client API, logger *slog.Logger) *EC2Provider {
	return &EC2Provider{
		client: client,
		logger: logger.With("provider", "ec2"),
	}
}

func (p *EC2Provider) Name() string {
	return "ec2"
}

func (p *EC2Provider) Kind() provider.Kind {
	return provider.KindCompute
}

func (p *EC2Provider) ListInstances(ctx context.Context) ([]*provider.Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: schedulableStates,
			},
		},
	}

	var instances []*provider.Instance
	paginator := ec2.NewDescribeInstancesPaginator(p.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for i := range reservation.Instances {
				instances = append(instances, toInstance(&reservation.Instances[i]))
			}
		}
	}

	p.logger.Debug("listed instances", "count", len(instances))
	return instances, nil
}

// Tags returns the tags captured when the instance was listed
func (p *EC2Provider) Tags(ctx context.Context, inst *provider.Instance) (map[string]string, error) {
	tags := make(map[string]string, len(inst.Tags))
	for k, v := range inst.Tags {
		tags[k] = v
	}
	return tags, nil
}

func (p *EC2Provider) WriteTag(ctx context.Context, inst *provider.Instance, key, value string) error {
	_, err := p.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{inst.ID},
		Tags: []types.Tag{
			{Key: aws.String(key), Value: aws.String(value)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to tag instance %s: %w", inst.ID, err)
	}
	return nil
}

func (p *EC2Provider) Start(ctx context.Context, inst *provider.Instance) error {
	_, err := p.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{inst.ID},
	})
	if err != nil {
		return fmt.Errorf("failed to start instance %s: %w", inst.ID, err)
	}
	return nil
}

func (p *EC2Provider) Stop(ctx context.Context, inst *provider.Instance) error {
	_, err := p.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{inst.ID},
	})
	if err != nil {
		return fmt.Errorf("failed to stop instance %s: %w", inst.ID, err)
	}
	return nil
}

func (p *EC2Provider) HealthCheck(ctx context.Context) error {
	// Simple check: describe regions to verify API access
	if _, err := p.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{}); err != nil {
		return fmt.Errorf("EC2 health check failed: %w", err)
	}
	return nil
}

func (p *EC2Provider) Close() error {
	return nil
}

func toInstance(instance *types.Instance) *provider.Instance {
	tags := make(map[string]string, len(instance.Tags))
	for _, tag := range instance.Tags {
		if tag.Key == nil {
			continue
		}
		tags[*tag.Key] = aws.ToString(tag.Value)
	}

	state := ""
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	return &provider.Instance{
		ID:    aws.ToString(instance.InstanceId),
		Kind:  provider.KindCompute,
		State: state,
		Tags:  tags,
	}
}
