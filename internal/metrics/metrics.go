// Package metrics provides Prometheus metrics for calendar-weather.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "calweather"

var (
	// ProviderCalls counts forecast provider attempts by outcome.
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Total number of forecast provider attempts",
		},
		[]string{"provider", "operation", "status"},
	)

	// CacheReads counts shared cache reads by result.
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_reads_total",
			Help:      "Shared cache reads by result (hit, miss, stale, corrupt)",
		},
		[]string{"key", "result"},
	)

	// CacheWrites counts shared cache writes.
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Shared cache writes by status",
		},
		[]string{"key", "status"},
	)

	// BudgetExhausted counts provider calls refused by the session throttle.
	BudgetExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_budget_exhausted_total",
			Help:      "Provider calls refused because the session budget was used up",
		},
	)

	// PositionResolutions counts resolved positions by source.
	PositionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_resolutions_total",
			Help:      "Resolved positions by resolution step",
		},
		[]string{"source"},
	)

	// SyntheticDays counts cells filled with synthetic weather.
	SyntheticDays = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthetic_days_total",
			Help:      "Calendar cells rendered with synthetic weather",
		},
	)

	// ScheduledRefreshes tracks refresh jobs registered and fired.
	ScheduledRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_refreshes_total",
			Help:      "Refresh jobs by event (planned, fired)",
		},
		[]string{"event"},
	)

	// SnapshotDuration measures renderer snapshot generation.
	SnapshotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of snapshot generation in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// RecordProviderCall records one provider attempt.
func RecordProviderCall(provider, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ProviderCalls.WithLabelValues(provider, operation, status).Inc()
}
