package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus is a Collector backed by prometheus counters and histograms,
// exposed on the /metrics endpoint.
type Prometheus struct {
	transactions *prometheus.CounterVec
	volume       *prometheus.CounterVec
	errors       *prometheus.CounterVec
	durations    *prometheus.HistogramVec
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusledger",
			Name:      "transactions_total",
			Help:      "Settled transactions by type.",
		}, []string{"type"}),
		volume: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusledger",
			Name:      "transaction_volume_total",
			Help:      "Settled transaction volume by type.",
		}, []string{"type"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusledger",
			Name:      "operation_errors_total",
			Help:      "Failed operations by operation and error kind.",
		}, []string{"operation", "error"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campusledger",
			Name:      "operation_duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (p *Prometheus) RecordTransaction(txType string, amount float64) {
	p.transactions.WithLabelValues(txType).Inc()
	p.volume.WithLabelValues(txType).Add(amount)
}

func (p *Prometheus) RecordError(operation, errType string) {
	p.errors.WithLabelValues(operation, errType).Inc()
}

func (p *Prometheus) RecordOperationDuration(operation string, d time.Duration) {
	p.durations.WithLabelValues(operation).Observe(d.Seconds())
}
