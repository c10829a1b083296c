package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal counts orchestrator runs by trigger and final status.
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_sync_runs_total",
		Help: "Total number of sync runs by trigger and status",
	}, []string{"trigger", "status"})

	// SyncRunDuration records how long a sync run took.
	SyncRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "amplify_sync_run_duration_seconds",
		Help:    "Sync run duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"trigger"})

	// FetchOutcomesTotal counts participant fetches by platform and outcome.
	FetchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_fetch_outcomes_total",
		Help: "Total number of participant fetches by platform and outcome",
	}, []string{"platform", "outcome"})

	// PostsSavedTotal counts upserted posts by platform.
	PostsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_posts_saved_total",
		Help: "Total number of posts upserted by platform",
	}, []string{"platform"})

	// PostsScoredTotal counts scoring attempts by result.
	PostsScoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_posts_scored_total",
		Help: "Total number of post scoring attempts by result",
	}, []string{"result"})

	// LastSyncSuccess is the unix time of the last successful run.
	LastSyncSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "amplify_last_sync_success_timestamp_seconds",
		Help: "Unix timestamp of the last successful sync run",
	})
)

// ObserveSyncRun records the outcome of one run.
func ObserveSyncRun(trigger, status string, start time.Time, succeeded bool) {
	SyncRunsTotal.WithLabelValues(trigger, status).Inc()
	SyncRunDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	if succeeded {
		LastSyncSuccess.SetToCurrentTime()
	}
}
