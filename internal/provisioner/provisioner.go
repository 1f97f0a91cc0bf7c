package provisioner

import (
	"fmt"
	"strings"

	"Dormant/internal/provider"
	"Dormant/internal/schedule"
)

// Outcome explains what the provisioner decided for an untagged instance.
type Outcome string

const (
	OutcomeExcluded      Outcome = "excluded"
	OutcomeAutoScaled    Outcome = "autoscaled"
	OutcomeForceDisabled Outcome = "force_disabled"
	OutcomeCreate        Outcome = "create"
)

// TagWriteRequest is a schedule tag that should be written to an instance.
type TagWriteRequest struct {
	InstanceID string
	Key        string
	Value      string
}

// Policy decides whether a missing schedule tag is created with the default schedule.
type Policy struct {
	TagKey  string
	Default schedule.Schedule
	Force   bool
	exclude map[string]struct{}
}

// NewPolicy builds a policy; blank identifiers in exclude are ignored.
func NewPolicy(tagKey string, def schedule.Schedule, force bool, exclude []string) *Policy {
	set := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &Policy{
		TagKey:  tagKey,
		Default: def,
		Force:   force,
		exclude: set,
	}
}

// Excluded reports whether id is in the exclusion set.
func (p *Policy) Excluded(id string) bool {
	_, ok := p.exclude[id]
	return ok
}

// Evaluate applies the rules in order: exclusion, auto scaling membership
// (compute only), force flag. Only OutcomeCreate carries a request, with the
// default schedule encoded for the instance's kind.
func (p *Policy) Evaluate(inst *provider.Instance, tags map[string]string) (Outcome, *TagWriteRequest, error) {
	if p.Excluded(inst.ID) {
		return OutcomeExcluded, nil, nil
	}
	if inst.Kind == provider.KindCompute && provider.AutoScaled(tags) {
		return OutcomeAutoScaled, nil, nil
	}
	if !p.Force {
		return OutcomeForceDisabled, nil, nil
	}

	value, err := provider.CodecFor(inst.Kind).Encode(p.Default)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode default schedule for %s: %w", inst.Kind, err)
	}
	return OutcomeCreate, &TagWriteRequest{
		InstanceID: inst.ID,
		Key:        p.TagKey,
		Value:      value,
	}, nil
}
