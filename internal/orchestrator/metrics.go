package orchestrator

import (
	"fmt"
	"time"

	"brewscout/internal/models"
)

// CacheHitRateNotApplicable is reported when a run made no enrichment
// cache lookups at all, which is different from a rate of zero.
const CacheHitRateNotApplicable = "not-applicable"

// Metrics summarizes a finished run. Every value is computed purely from
// the trace; the orchestrator keeps no hidden counters.
type Metrics struct {
	TotalElapsed    time.Duration            `json:"totalElapsed"`
	ToolCalls       map[string]int           `json:"toolCalls"`
	ToolAvgDuration map[string]time.Duration `json:"toolAvgDuration"`
	CacheHitRate    string                   `json:"cacheHitRate"`
}

// ComputeMetrics derives run metrics from the execution trace. Trace
// timestamps mark step starts, so total elapsed spans the first start
// through the last step's end.
func ComputeMetrics(trace []models.ExecutionLogEntry) Metrics {
	metrics := Metrics{
		ToolCalls:       make(map[string]int, len(trace)),
		ToolAvgDuration: make(map[string]time.Duration, len(trace)),
		CacheHitRate:    CacheHitRateNotApplicable,
	}
	if len(trace) == 0 {
		return metrics
	}

	totals := make(map[string]time.Duration, len(trace))
	var lookups, hits int
	for _, entry := range trace {
		metrics.ToolCalls[entry.Step]++
		totals[entry.Step] += entry.Duration

		if entry.CacheOutcome != "" && entry.CacheOutcome != models.CacheNotApplicable {
			lookups++
			if entry.CacheOutcome == models.CacheHit {
				hits++
			}
		}
	}

	for step, total := range totals {
		metrics.ToolAvgDuration[step] = total / time.Duration(metrics.ToolCalls[step])
	}

	if lookups > 0 {
		metrics.CacheHitRate = fmt.Sprintf("%.2f", float64(hits)/float64(lookups))
	}

	last := trace[len(trace)-1]
	metrics.TotalElapsed = last.Timestamp.Add(last.Duration).Sub(trace[0].Timestamp)

	return metrics
}
