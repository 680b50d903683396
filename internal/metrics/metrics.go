package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Month window load latency in seconds.
	MonthLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitcal_month_load_duration_seconds",
			Help:    "Month window load duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"status"}, // status: applied, superseded, failed
	)

	// Reconcile outcomes.
	ReconcileCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitcal_reconcile_total",
			Help: "Total number of date reconciliations",
		},
		[]string{"status"}, // status: noop, saved, failed
	)

	// Rows touched by reconciliation.
	DeltaSize = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitcal_delta_rows_total",
			Help: "Log rows inserted or deleted by reconciliation",
		},
		[]string{"op"}, // op: insert, delete
	)

	// Holiday lookups by where the answer came from.
	HolidayFetchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitcal_holiday_fetch_total",
			Help: "Holiday cache fills by source",
		},
		[]string{"source"}, // source: kv, network, failed
	)
)

// RecordMonthLoad records a month load's duration and outcome.
func RecordMonthLoad(status string, duration time.Duration) {
	MonthLoadDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncrementReconcile counts a reconcile outcome.
func IncrementReconcile(status string) {
	ReconcileCount.WithLabelValues(status).Inc()
}

// AddDelta counts rows written by a successful reconcile.
func AddDelta(inserted, deleted int) {
	DeltaSize.WithLabelValues("insert").Add(float64(inserted))
	DeltaSize.WithLabelValues("delete").Add(float64(deleted))
}

// IncrementHolidayFetch counts a holiday cache fill.
func IncrementHolidayFetch(source string) {
	HolidayFetchCount.WithLabelValues(source).Inc()
}
