package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helix_extractions_total",
		Help: "Extraction attempts by status.",
	}, []string{"status"})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helix_imports_total",
		Help: "Record import transactions by status.",
	}, []string{"status"})

	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "helix_import_duration_seconds",
		Help:    "Wall time of one record import transaction.",
		Buckets: prometheus.DefBuckets,
	})

	NodesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helix_nodes_written_total",
		Help: "Nodes written to the graph by label.",
	}, []string{"label"})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helix_queries_total",
		Help: "Query template executions by template and status.",
	}, []string{"template", "status"})
)
