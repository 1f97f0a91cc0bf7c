package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "dormant"
)

// Metrics holds all Prometheus metrics for the scheduler
type Metrics struct {
	// Pass metrics
	PassesTotal       *prometheus.CounterVec
	PassDuration      prometheus.Histogram
	LastPassTimestamp prometheus.Gauge

	// Instance metrics
	InstancesEvaluated *prometheus.CounterVec
	Actions            *prometheus.CounterVec
	DecodeErrors       *prometheus.CounterVec
	TagsProvisioned    *prometheus.CounterVec

	// Provider metrics
	ProviderErrors *prometheus.CounterVec

	// System metrics
	ControllerInfo *prometheus.GaugeVec
	LeaderElection prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	m := &Metrics{
		PassesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passes_total",
				Help:      "Total number of evaluation passes",
			},
			[]string{"status"},
		),
		PassDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of evaluation passes",
				Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
			},
		),
		LastPassTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_pass_timestamp_seconds",
				Help:      "Unix time the last pass finished",
			},
		),

		InstancesEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instances_evaluated_total",
				Help:      "Total number of instances evaluated",
			},
			[]string{"kind"},
		),
		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of start and stop actions issued",
			},
			[]string{"kind", "action"},
		),
		DecodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_errors_total",
				Help:      "Total number of schedule tags that failed to decode",
			},
			[]string{"kind"},
		),
		TagsProvisioned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tags_provisioned_total",
				Help:      "Provisioner outcomes for instances without a schedule tag",
			},
			[]string{"kind", "outcome"},
		),

		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors",
			},
			[]string{"kind", "operation", "error_type"},
		),

		ControllerInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "controller_info",
				Help:      "Information about the scheduler",
			},
			[]string{"version", "time_mode", "mode"},
		),
		LeaderElection: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "leader_election_status",
				Help:      "Leader election status (1 if leader, 0 otherwise)",
			},
		),
	}

	return m
}
