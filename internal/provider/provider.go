package provider

import (
	"context"
	"strings"

	"Dormant/internal/schedule"
)

// Kind identifies a schedulable resource type
type Kind string

const (
	KindCompute  Kind = "ec2"
	KindDatabase Kind = "rds"
)

// ParseKind accepts "ec2" or "rds"
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(s)) {
	case KindCompute:
		return KindCompute, true
	case KindDatabase:
		return KindDatabase, true
	default:
		return "", false
	}
}

// CodecFor returns the tag encoding used by a resource kind
func CodecFor(kind Kind) schedule.Codec {
	if kind == KindDatabase {
		return schedule.FlatCodec{}
	}
	return schedule.NestedCodec{}
}

const (
	StateRunning   = "running"
	StateAvailable = "available"

	// autoScalingTagKey marks instances owned by an auto scaling group.
	autoScalingTagKey = "aws:autoscaling:groupName"
)

// Instance is a compute or database instance as seen by the scheduler
type Instance struct {
	ID    string
	ARN   string
	Kind  Kind
	State string
	// Tags is populated by ListInstances for compute instances only. Database
	// tags come from Provider.Tags.
	Tags map[string]string
}

// Running reports whether the instance is up: "running" for compute,
// "available" for database instances.
func (i *Instance) Running() bool {
	if i.Kind == KindDatabase {
		return i.State == StateAvailable
	}
	return i.State == StateRunning
}

// AutoScaled reports whether any tag key marks auto scaling group membership
func AutoScaled(tags map[string]string) bool {
	for key := range tags {
		if strings.Contains(key, autoScalingTagKey) {
			return true
		}
	}
	return false
}

// Provider defines the operations the scheduler needs from a cloud API
type Provider interface {
	// Name returns the provider name
	Name() string

	// Kind returns the resource kind this provider manages
	Kind() Kind

	// ListInstances returns every instance the scheduler may act on
	ListInstances(ctx context.Context) ([]*Instance, error)

	// Tags returns the current tags of an instance
	Tags(ctx context.Context, inst *Instance) (map[string]string, error)

	// WriteTag sets a single tag on an instance
	WriteTag(ctx context.Context, inst *Instance, key, value string) error

	// Start powers an instance on
	Start(ctx context.Context, inst *Instance) error

	// Stop powers an instance off
	Stop(ctx context.Context, inst *Instance) error

	// HealthCheck performs a health check on the provider
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the provider
	Close() error
}
