package metrics

import (
	"net/http"
	"time"

	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

type TransactionMetrics struct {
	Transactions *prometheus.CounterVec   // labels: outcome
	StageSeconds *prometheus.HistogramVec // labels: stage
}

func NewTransactionMetrics(reg prometheus.Registerer) *TransactionMetrics {
	m := &TransactionMetrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pi30_transactions_total",
			Help: "Inverter transactions by outcome.",
		}, []string{"outcome"}),
		StageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pi30_transaction_stage_seconds",
			Help:    "Time spent in each transaction stage.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"stage"}),
	}
	reg.MustRegister(m.Transactions, m.StageSeconds)
	return m
}

// Instrument adapts the collectors to the pi30 client hooks.
func (m *TransactionMetrics) Instrument() *pi30.Instrument {
	return &pi30.Instrument{
		RecordTime: func(stage string, elapsed time.Duration) {
			m.StageSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
		},
		RecordOutcome: func(outcome pi30.Outcome) {
			m.Transactions.WithLabelValues(outcome.String()).Inc()
		},
	}
}
