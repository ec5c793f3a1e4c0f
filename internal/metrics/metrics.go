// Package metrics exposes run progress as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/riskflow/internal/engine"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	steps         prometheus.Counter
	transmissions *prometheus.CounterVec
	packets       *prometheus.CounterVec
	results       prometheus.Counter
	flushDuration prometheus.Histogram
	runs          *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskflow_steps_total",
			Help: "Simulation steps fired.",
		}),
		transmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskflow_transmissions_total",
			Help: "Transmitter firings by sender and receiver.",
		}, []string{"sender", "receiver"}),
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskflow_packets_transmitted_total",
			Help: "Packets moved by transmitters, by sender and receiver.",
		}, []string{"sender", "receiver"}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskflow_results_total",
			Help: "Result records handed to the sink.",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskflow_flush_duration_seconds",
			Help:    "Duration of the final sink flush.",
			Buckets: prometheus.DefBuckets,
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskflow_runs_total",
			Help: "Finished runs by status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.steps, m.transmissions, m.packets, m.results, m.flushDuration, m.runs)
	return m
}

// Registry returns the private registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns engine hooks feeding the collectors.
func (m *Metrics) Hooks() engine.Hooks {
	return engine.Hooks{
		OnStep: func(_ context.Context, e engine.StepEvent) {
			m.steps.Inc()
			m.results.Add(float64(e.Records))
		},
		OnTransmit: func(e engine.TransmitEvent) {
			m.transmissions.WithLabelValues(e.Sender, e.Receiver).Inc()
			m.packets.WithLabelValues(e.Sender, e.Receiver).Add(float64(e.Packets))
		},
		OnFlush: func(_ context.Context, e engine.FlushEvent) {
			m.flushDuration.Observe(e.Duration.Seconds())
		},
		OnRunEnd: func(_ context.Context, o engine.Outcome) {
			status := "completed"
			if o.Err != nil {
				status = "failed"
			}
			m.runs.WithLabelValues(status).Inc()
		},
	}
}

// Handler serves the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP)
	return r
}
