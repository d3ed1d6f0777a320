// Package metrics defines Prometheus metrics for codelens.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelens_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelens_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelens_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelens_retrieval_duration_seconds",
			Help:    "Retrieval duration in seconds by source path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	GraphQueryAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codelens_graph_query_attempts",
			Help:    "Structural query attempts consumed per question",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	QueriesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codelens_structural_queries_rejected_total",
			Help: "Generated structural queries rejected by validation",
		},
	)

	FusedResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codelens_fused_results",
			Help:    "Result count after fusion",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	EmbedQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codelens_embed_queue_depth",
			Help: "Chunks waiting for embedding during ingestion",
		},
	)

	NodeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codelens_nodes_total",
			Help: "Total code node count",
		},
	)

	EdgeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codelens_edges_total",
			Help: "Total code edge count",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		RetrievalDuration, GraphQueryAttempts, QueriesRejected, FusedResults,
		EmbedQueueDepth, NodeCount, EdgeCount,
	)
}
