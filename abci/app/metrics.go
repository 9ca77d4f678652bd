package app

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "app"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Height of the last committed block.
	Height metrics.Gauge
	// Number of delivered transactions, labeled by message type and code.
	DeliveredTxs metrics.Counter
	// Number of transactions checked for the mempool, labeled by code.
	CheckedTxs metrics.Counter
	// Number of order fills.
	OrderFills metrics.Counter
	// Number of order cancellations.
	OrderCancels metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Height of the last committed block.",
		}, []string{}),
		DeliveredTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "delivered_txs",
			Help:      "Number of delivered transactions.",
		}, []string{"type", "code"}),
		CheckedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "checked_txs",
			Help:      "Number of transactions checked for the mempool.",
		}, []string{"code"}),
		OrderFills: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "order_fills",
			Help:      "Number of order fills.",
		}, []string{}),
		OrderCancels: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "order_cancels",
			Help:      "Number of order cancellations.",
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Height:       discard.NewGauge(),
		DeliveredTxs: discard.NewCounter(),
		CheckedTxs:   discard.NewCounter(),
		OrderFills:   discard.NewCounter(),
		OrderCancels: discard.NewCounter(),
	}
}
