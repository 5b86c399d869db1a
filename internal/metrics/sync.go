package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "searchsync"

// Sync and search engine Prometheus metrics.
var (
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of sync runs",
		},
		[]string{"op", "status"},
	)

	SyncRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_run_duration_seconds",
			Help:      "Sync run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"op"},
	)

	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Total documents submitted in successful bulk writes",
		},
		[]string{"type"},
	)

	BulkPayloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_payload_bytes",
			Help:      "Size of submitted bulk payloads",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_operations_total",
			Help:      "Total index lifecycle operations",
		},
		[]string{"op", "status"},
	)

	SearchEngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_engine_requests_total",
			Help:      "Total HTTP requests sent to the search engine",
		},
		[]string{"op", "status"},
	)

	SearchEngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)

	SearchEngineBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_engine_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers sync and search engine metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(SyncRunDuration)
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(BulkPayloadBytes)
	prometheus.MustRegister(IndexOperationsTotal)
	prometheus.MustRegister(SearchEngineRequestsTotal)
	prometheus.MustRegister(SearchEngineRequestDuration)
	prometheus.MustRegister(SearchEngineBreakerState)
	syncMetricsRegistered = true
}

// Status returns the label value for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
