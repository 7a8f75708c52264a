package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for StaySync
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Queue Metrics
	QueueDepth        prometheus.Gauge
	TaskDuration      prometheus.HistogramVec
	TasksRetriedTotal prometheus.CounterVec
	TasksFailedTotal  prometheus.CounterVec

	// Sync Metrics
	SyncRunsTotal         prometheus.CounterVec
	SyncRunDuration       prometheus.HistogramVec
	RecordsProcessedTotal prometheus.Counter
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staysync_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staysync_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "staysync_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Queue Metrics
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staysync_queue_depth",
				Help: "Number of sync tasks pending or due for retry",
			},
		),
		TaskDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staysync_task_duration_seconds",
				Help:    "Sync task execution time in seconds by task kind",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),
		TasksRetriedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staysync_tasks_retried_total",
				Help: "Total sync tasks re-queued after a failed attempt",
			},
			[]string{"kind"},
		),
		TasksFailedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staysync_tasks_failed_total",
				Help: "Total sync tasks that exhausted their retry budget",
			},
			[]string{"kind"},
		),

		// Sync Metrics
		SyncRunsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staysync_sync_runs_total",
				Help: "Total sync runs by operation type and outcome",
			},
			[]string{"operation", "status"},
		),
		SyncRunDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staysync_sync_run_duration_seconds",
				Help:    "Sync run scheduling time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"operation"},
		),
		RecordsProcessedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "staysync_records_processed_total",
				Help: "Total booking records reconciled into the local store",
			},
		),
	}
}
