// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing helpers for the turn pipeline.
package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the pipeline-level Prometheus metrics.
type Metrics struct {
	TurnsProcessed *prometheus.CounterVec
	TurnDuration   *prometheus.HistogramVec
	StageDuration  *prometheus.HistogramVec
	DuplicateTurns prometheus.Counter
	FallbackTotal  prometheus.Counter
}

// register adds a collector to the registry, reusing the existing one when
// the same collector was registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(C)
		}
	}
	return c
}

// NewMetrics builds and registers the pipeline metrics.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TurnsProcessed: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_processed_total",
			Help:      "Turn submissions by input kind and outcome.",
		}, []string{"input_kind", "outcome"})),
		TurnDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn processing latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"input_kind"})),
		StageDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_stage_duration_seconds",
			Help:      "Per-stage latency within turn processing.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"})),
		DuplicateTurns: register[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_turns_total",
			Help:      "Submissions resolved to an existing turn by the dedup window.",
		})),
		FallbackTotal: register[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Coach responses served from the deterministic fallback set.",
		})),
	}
}
