// Package observability provides Prometheus instrumentation for the engine,
// delivered through lifecycle hooks so the runtime stays metrics-agnostic.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// Metrics holds the engine-level Prometheus collectors.
type Metrics struct {
	stageDuration      *prometheus.HistogramVec
	stagesTotal        *prometheus.CounterVec
	retriesTotal       *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	checkpointsPending prometheus.Gauge
	reviewsTotal       *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lang2query",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per stage execution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lang2query",
			Name:      "stage_executions_total",
			Help:      "Stage executions by stage name.",
		}, []string{"stage"}),
		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lang2query",
			Name:      "retries_total",
			Help:      "Retries by level (run or regeneration).",
		}, []string{"level"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lang2query",
			Name:      "runs_total",
			Help:      "Terminated runs by outcome step.",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lang2query",
			Name:      "run_duration_seconds",
			Help:      "End-to-end run duration.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300},
		}),
		checkpointsPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lang2query",
			Name:      "checkpoints_pending",
			Help:      "Checkpoints currently awaiting human feedback.",
		}),
		reviewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lang2query",
			Name:      "reviews_total",
			Help:      "Resolved reviews by action.",
		}, []string{"action"}),
	}
}

// Hooks adapts the collectors to engine lifecycle hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, ev *domain.StageEvent) {
			m.stagesTotal.WithLabelValues(ev.Stage).Inc()
		},
		OnStageLeave: func(_ context.Context, ev *domain.StageEvent) {
			m.stageDuration.WithLabelValues(ev.Stage).Observe(ev.Duration.Seconds())
		},
		OnRetry: func(_ context.Context, ev *domain.RetryEvent) {
			level := "regeneration"
			if ev.RunLevel {
				level = "run"
			}
			m.retriesTotal.WithLabelValues(level).Inc()
		},
		OnCheckpointOpen: func(_ context.Context, _ *domain.CheckpointEvent) {
			m.checkpointsPending.Inc()
		},
		OnCheckpointResolve: func(_ context.Context, ev *domain.CheckpointEvent) {
			m.checkpointsPending.Dec()
			m.reviewsTotal.WithLabelValues(string(ev.Action)).Inc()
		},
		OnTerminal: func(_ context.Context, ev *domain.TerminalEvent) {
			m.runsTotal.WithLabelValues(string(ev.Outcome)).Inc()
			m.runDuration.Observe(ev.Duration.Seconds())
		},
	}
}
