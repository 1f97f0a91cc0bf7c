package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"Dormant/internal/analytics"
	"Dormant/internal/awsutil"
	"Dormant/internal/clock"
	"Dormant/internal/config"
	"Dormant/internal/decision"
	"Dormant/internal/metrics"
	"Dormant/internal/models"
	"Dormant/internal/provider"
	"Dormant/internal/provisioner"
	"Dormant/internal/schedule"
)

// scheduledTrigger is the payload of passes started by the hourly loop.
const scheduledTrigger = `{"source":"dormant.schedule"}`

type Controller struct {
	cfg       *config.Config
	providers []provider.Provider
	policy    *provisioner.Policy
	clock     *clock.Clock
	metrics   *metrics.Metrics
	tracker   *analytics.Tracker
	logger    *slog.Logger

	// mu serialises passes
	mu sync.Mutex
}

// New creates a controller. Providers are evaluated in the order given.
func New(
	cfg *config.Config,
	providers []provider.Provider,
	met *metrics.Metrics,
	tracker *analytics.Tracker,
	logger *slog.Logger,
) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	def, err := cfg.DefaultSchedule()
	if err != nil {
		return nil, fmt.Errorf("failed to decode default schedule: %w", err)
	}

	clk, err := clock.New(cfg.TimeMode())
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:       cfg,
		providers: providers,
		policy:    provisioner.NewPolicy(cfg.Schedule.TagKey, def, cfg.Schedule.ForceCreate, cfg.Schedule.Exclude),
		clock:     clk,
		metrics:   met,
		tracker:   tracker,
		logger:    logger.With("component", "controller"),
	}, nil
}

// Run starts one pass shortly after every full hour until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("controller starting",
		"time_mode", c.clock.Mode(),
		"offset", c.cfg.Loop.Offset,
		"dry_run", c.cfg.DryRun,
	)

	for {
		wait := nextPassDelay(c.clock.Now(), c.cfg.Loop.Offset)
		c.logger.Debug("waiting for next pass", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("controller stopped")
			return nil
		case <-timer.C:
		}

		if _, err := c.RunPass(ctx, []byte(scheduledTrigger)); err != nil {
			c.logger.Error("pass failed", "error", err)
		}
	}
}

// nextPassDelay returns the time from now until the next hour boundary plus
// offset, in now's location.
func nextPassDelay(now time.Time, offset time.Duration) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).Add(offset)
	if !next.After(now) {
		next = next.Add(time.Hour)
	}
	return next.Sub(now)
}

// RunPass evaluates every enabled resource kind once. Per-instance failures
// are recorded in the summary and never abort the pass.
func (c *Controller) RunPass(ctx context.Context, trigger []byte) (models.PassSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.PassSummary{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	now := c.clock.Now()
	day, hour := clock.DayHour(now)

	summary := models.PassSummary{
		ID:        uuid.NewString(),
		Trigger:   compactTrigger(trigger),
		StartedAt: now,
		Day:       string(day),
		Hour:      hour,
		TimeMode:  string(c.clock.Mode()),
		DryRun:    c.cfg.DryRun,
	}
	logger := c.logger.With("pass_id", summary.ID)
	logger.Info("starting pass", "day", day, "hour", hour, "trigger", summary.Trigger)

	status := "success"
	for _, prov := range c.providers {
		if !c.enabled(prov.Kind()) {
			logger.Debug("resource kind disabled", "kind", prov.Kind())
			summary.Kinds = append(summary.Kinds, models.KindSummary{Kind: string(prov.Kind()), Skipped: true})
			continue
		}

		ks := c.evaluateKind(ctx, prov, day, hour, logger.With("kind", prov.Kind()))
		if ks.Error != "" || len(ks.Failed) > 0 {
			status = "degraded"
		}
		summary.Kinds = append(summary.Kinds, ks)
	}

	summary.FinishedAt = c.clock.Now()
	c.metrics.PassesTotal.WithLabelValues(status).Inc()
	c.metrics.PassDuration.Observe(time.Since(start).Seconds())
	c.metrics.LastPassTimestamp.Set(float64(summary.FinishedAt.Unix()))
	if c.tracker != nil {
		c.tracker.RecordPass(summary)
	}

	logger.Info("pass complete",
		"status", status,
		"started", summary.Started(),
		"stopped", summary.Stopped(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

func (c *Controller) enabled(kind provider.Kind) bool {
	switch kind {
	case provider.KindCompute:
		return c.cfg.EC2.Enabled
	case provider.KindDatabase:
		return c.cfg.RDS.Enabled
	default:
		return false
	}
}

func (c *Controller) evaluateKind(ctx context.Context, prov provider.Provider, day schedule.Day, hour int, logger *slog.Logger) models.KindSummary {
	kind := prov.Kind()
	ks := models.KindSummary{
		Kind:    string(kind),
		Started: []string{},
		Stopped: []string{},
	}

	instances, err := prov.ListInstances(ctx)
	if err != nil {
		c.providerError(kind, "list", err)
		logger.Error("failed to list instances", "error", err)
		ks.Error = err.Error()
		return ks
	}
	if len(instances) == 0 {
		logger.Error("unable to find any instances, please check configuration")
		return ks
	}

	for _, inst := range instances {
		c.evaluateInstance(ctx, prov, inst, day, hour, &ks, logger.With("instance_id", inst.ID))
	}

	logger.Info("evaluated resource kind",
		"evaluated", ks.Evaluated,
		"started", ks.Started,
		"stopped", ks.Stopped,
	)
	return ks
}

func (c *Controller) evaluateInstance(
	ctx context.Context,
	prov provider.Provider,
	inst *provider.Instance,
	day schedule.Day,
	hour int,
	ks *models.KindSummary,
	logger *slog.Logger,
) {
	kind := prov.Kind()
	ks.Evaluated++
	c.metrics.InstancesEvaluated.WithLabelValues(string(kind)).Inc()

	tags, err := prov.Tags(ctx, inst)
	if err != nil {
		c.providerError(kind, "tags", err)
		logger.Error("failed to read tags", "error", err)
		ks.Failed = append(ks.Failed, inst.ID)
		return
	}

	value, ok := tags[c.policy.TagKey]
	if !ok {
		c.provision(ctx, prov, inst, tags, ks, logger)
		return
	}

	sched, err := provider.CodecFor(kind).Decode(value)
	if err != nil {
		c.metrics.DecodeErrors.WithLabelValues(string(kind)).Inc()
		logger.Error("invalid schedule tag, skipping", "value", value, "error", err)
		ks.DecodeFailures = append(ks.DecodeFailures, inst.ID)
		return
	}

	action := decision.Decide(sched, day, hour, inst.Running())
	logger.Debug("evaluated schedule", "state", inst.State, "action", action)

	switch action {
	case decision.ActionStart:
		if c.actuate(ctx, prov, inst, action, logger) {
			ks.Started = append(ks.Started, inst.ID)
		} else {
			ks.Failed = append(ks.Failed, inst.ID)
		}
	case decision.ActionStop:
		if c.actuate(ctx, prov, inst, action, logger) {
			ks.Stopped = append(ks.Stopped, inst.ID)
		} else {
			ks.Failed = append(ks.Failed, inst.ID)
		}
	}
}

// provision handles an instance that carries no schedule tag. The instance
// gets no action this pass whatever the outcome.
func (c *Controller) provision(
	ctx context.Context,
	prov provider.Provider,
	inst *provider.Instance,
	tags map[string]string,
	ks *models.KindSummary,
	logger *slog.Logger,
) {
	kind := prov.Kind()

	outcome, req, err := c.policy.Evaluate(inst, tags)
	if err != nil {
		logger.Error("failed to build default schedule tag", "error", err)
		ks.Failed = append(ks.Failed, inst.ID)
		return
	}
	c.metrics.TagsProvisioned.WithLabelValues(string(kind), string(outcome)).Inc()

	if req == nil {
		logger.Info("no schedule tag", "outcome", outcome)
		return
	}

	if c.cfg.DryRun {
		logger.Info("dry run: would create schedule tag", "key", req.Key, "value", req.Value)
		ks.Provisioned = append(ks.Provisioned, inst.ID)
		return
	}

	if err := prov.WriteTag(ctx, inst, req.Key, req.Value); err != nil {
		c.providerError(kind, "write_tag", err)
		logger.Error("failed to create schedule tag", "error", err)
		ks.Failed = append(ks.Failed, inst.ID)
		return
	}

	logger.Info("created schedule tag", "key", req.Key, "value", req.Value)
	ks.Provisioned = append(ks.Provisioned, inst.ID)
}

// actuate reports whether the action went through; in dry-run mode it only logs.
func (c *Controller) actuate(ctx context.Context, prov provider.Provider, inst *provider.Instance, action decision.Action, logger *slog.Logger) bool {
	kind := prov.Kind()

	if c.cfg.DryRun {
		logger.Info("dry run: would "+action.String()+" instance", "state", inst.State)
		return true
	}

	var err error
	switch action {
	case decision.ActionStart:
		err = prov.Start(ctx, inst)
	case decision.ActionStop:
		err = prov.Stop(ctx, inst)
	}
	if err != nil {
		c.providerError(kind, action.String(), err)
		logger.Error("failed to "+action.String()+" instance", "error", err)
		return false
	}

	c.metrics.Actions.WithLabelValues(string(kind), action.String()).Inc()
	logger.Info(action.String()+" instance", "state", inst.State)
	return true
}

func (c *Controller) providerError(kind provider.Kind, operation string, err error) {
	c.metrics.ProviderErrors.WithLabelValues(string(kind), operation, awsutil.ErrorCode(err)).Inc()
}

// compactTrigger renders a JSON trigger payload on one line; anything else is
// kept verbatim.
func compactTrigger(trigger []byte) string {
	if len(trigger) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trigger); err != nil {
		return string(trigger)
	}
	return buf.String()
}
