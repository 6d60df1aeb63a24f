// Package metrics exposes client counters in prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	balanceReads    *prometheus.CounterVec
	balanceDuration prometheus.Histogram
	actions         *prometheus.CounterVec
	providerEvents  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		balanceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethfaucet",
			Name:      "balance_reads_total",
			Help:      "Contract balance reads by result.",
		}, []string{"result"}),
		balanceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ethfaucet",
			Name:      "balance_read_seconds",
			Help:      "Latency of contract balance reads.",
			Buckets:   prometheus.DefBuckets,
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethfaucet",
			Name:      "actions_total",
			Help:      "Deposit and withdraw submissions by result.",
		}, []string{"kind", "result"}),
		providerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethfaucet",
			Name:      "provider_events_total",
			Help:      "Account and chain change notifications from the provider.",
		}, []string{"type"}),
	}
	m.Registry.MustRegister(m.balanceReads, m.balanceDuration, m.actions, m.providerEvents)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) RecordBalanceRead(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.balanceReads.WithLabelValues(result(err)).Inc()
	m.balanceDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordAction(kind string, err error) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) RecordProviderEvent(eventType string) {
	if m == nil {
		return
	}
	m.providerEvents.WithLabelValues(eventType).Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
