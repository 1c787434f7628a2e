// Package metrics holds the Prometheus collectors for analysis traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Analyses     *prometheus.CounterVec
	Recoveries   *prometheus.CounterVec
	ModelLatency *prometheus.HistogramVec
	Uploads      *prometheus.CounterVec
}

// New registers collectors on a private registry so tests can build many.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelcheck_analyses_total",
			Help: "Analysis requests by flow, mode (demo|live) and outcome.",
		}, []string{"flow", "mode", "outcome"}),
		Recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelcheck_normalizer_results_total",
			Help: "Normalizer results by recovery tier and code.",
		}, []string{"tier", "code"}),
		ModelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labelcheck_model_call_seconds",
			Help:    "Latency of external model calls.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		}, []string{"flow"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelcheck_uploads_total",
			Help: "Uploaded artifacts by sniffed media type and result.",
		}, []string{"mime", "result"}),
	}
	reg.MustRegister(
		m.Analyses, m.Recoveries, m.ModelLatency, m.Uploads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
