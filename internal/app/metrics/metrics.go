// Package metrics exposes the Prometheus instrumentation for the
// gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the gateway's collectors around a private
// prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	SessionsStarted prometheus.Counter
	SessionsStopped prometheus.Counter
	OpenSessions    prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hustleboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hustleboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hustleboard",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hustleboard",
			Name:      "sessions_started_total",
			Help:      "Time sessions started.",
		}),
		SessionsStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hustleboard",
			Name:      "sessions_stopped_total",
			Help:      "Time sessions stopped.",
		}),
		OpenSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hustleboard",
			Name:      "open_sessions",
			Help:      "Sessions currently running.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.SessionsStarted,
		m.SessionsStopped,
		m.OpenSessions,
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
