// Package metrics provides Prometheus instrumentation for the matching
// engine: run counters, match yields, notification volume, and cache
// degradation visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MatchRunsTotal counts matching runs, labeled by direction
	// ("goal" or "deal") and outcome ("ok", "inactive", "error").
	MatchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealradar_match_runs_total",
		Help: "Total number of matching runs",
	}, []string{"direction", "status"})

	// MatchesFoundTotal counts matches that passed the score threshold.
	MatchesFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealradar_matches_found_total",
		Help: "Total number of matches above the score threshold",
	}, []string{"direction"})

	// NotificationsSentTotal counts dispatched match notifications.
	NotificationsSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dealradar_notifications_sent_total",
		Help: "Total number of match notifications dispatched",
	})

	// CacheErrorsTotal counts degraded cache operations. The match cache
	// is best-effort, so these are warnings rather than failures, but a
	// sustained rate means every read is a recompute.
	CacheErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dealradar_cache_errors_total",
		Help: "Total number of failed match cache operations",
	})

	// MatchRunDuration records end-to-end matching run latency.
	MatchRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dealradar_match_run_duration_seconds",
		Help:    "End-to-end matching run duration in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"direction"})
)

func init() {
	prometheus.MustRegister(
		MatchRunsTotal,
		MatchesFoundTotal,
		NotificationsSentTotal,
		CacheErrorsTotal,
		MatchRunDuration,
	)
}
