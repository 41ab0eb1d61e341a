// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors on a private registry so tests can build
// isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ingests          *prometheus.CounterVec
	executions       *prometheus.CounterVec
	executionSeconds prometheus.Histogram
}

// New builds the collectors. liveSessions feeds the live-session gauge; nil
// disables it.
func New(liveSessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataclean_ingests_total",
			Help: "Uploads ingested, by declared format and result.",
		}, []string{"format", "result"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataclean_executions_total",
			Help: "Sandbox executions, by outcome.",
		}, []string{"outcome"}),
		executionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataclean_execution_duration_seconds",
			Help:    "Wall-clock duration of sandbox executions.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.ingests, m.executions, m.executionSeconds)

	if liveSessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dataclean_sessions_live",
			Help: "Sessions currently held in the store.",
		}, func() float64 { return float64(liveSessions()) }))
	}
	return m
}

// ObserveIngest records one upload attempt. Nil-safe.
func (m *Metrics) ObserveIngest(format, result string) {
	if m == nil {
		return
	}
	m.ingests.WithLabelValues(format, result).Inc()
}

// ObserveExecution records one sandbox run. Nil-safe.
func (m *Metrics) ObserveExecution(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(outcome).Inc()
	m.executionSeconds.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
