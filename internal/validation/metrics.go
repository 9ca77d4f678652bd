package validation

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "validation"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of predicate evaluations, labeled by program and result.
	PredicateEvaluations metrics.Counter
	// Number of transactions rejected, labeled by reason.
	RejectedTxs metrics.Counter
	// Histogram of the number of inputs of validated transactions.
	TxInputs metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		PredicateEvaluations: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "predicate_evaluations",
			Help:      "Number of predicate evaluations.",
		}, []string{"program", "result"}),
		RejectedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_txs",
			Help:      "Number of transactions that failed validation.",
		}, []string{"reason"}),
		TxInputs: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "tx_inputs",
			Help:      "Number of inputs of validated transactions.",
			Buckets:   stdprometheus.ExponentialBuckets(1, 2, 9),
		}, []string{}),
	}
}

var nopMetrics = NopMetrics()

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		PredicateEvaluations: discard.NewCounter(),
		RejectedTxs:          discard.NewCounter(),
		TxInputs:             discard.NewHistogram(),
	}
}
