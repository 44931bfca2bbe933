package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reconciliation Prometheus metrics.
var (
	ReconcileOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenqd",
			Name:      "reconcile_outcomes_total",
			Help:      "Reconciliation outcomes by terminal state",
		},
		[]string{"outcome"}, // ready_cached / ready_unchanged / ingested / failed
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tenqd",
			Name:      "reconcile_duration_seconds",
			Help:      "End-to-end reconciliation duration in seconds",
			Buckets:   []float64{0.005, 0.05, 0.25, 1, 5, 15, 60, 180},
		},
	)

	IngestedFragmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tenqd",
			Name:      "ingested_fragments_total",
			Help:      "Total fragments upserted into the chunk store",
		},
	)
)

// RegisterReconcileMetrics registers reconciliation metrics with the default registry.
func RegisterReconcileMetrics() {
	prometheus.MustRegister(ReconcileOutcomesTotal, ReconcileDuration, IngestedFragmentsTotal)
}
