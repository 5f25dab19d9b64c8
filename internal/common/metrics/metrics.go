// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlanRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_runs_completed_total",
			Help: "Total number of completed plan runs by final status",
		},
		[]string{"status"},
	)

	PlanStepsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_steps_failed_total",
			Help: "Total number of failed plan steps",
		},
		[]string{"step", "error_code"},
	)

	PlanStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "plan_step_duration_seconds",
			Help: "Duration of plan step processing in seconds",
		},
		[]string{"step"},
	)

	EnrichmentCacheOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_outcomes_total",
			Help: "Enrichment cache lookup outcomes (hit, stale, miss)",
		},
		[]string{"outcome"},
	)
)
