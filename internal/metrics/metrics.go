// Package metrics exposes Prometheus collectors for the enhancement pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enhancementsTotal   *prometheus.CounterVec
	recoveryStrategies  *prometheus.CounterVec
	providerDuration    *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a metrics instance on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		enhancementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enhancer_enhancements_total",
				Help: "Enhancement requests by outcome class",
			},
			[]string{"outcome"},
		),

		recoveryStrategies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enhancer_recovery_strategy_total",
				Help: "Provider replies recovered, by winning strategy",
			},
			[]string{"strategy"},
		),

		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enhancer_provider_request_duration_seconds",
				Help:    "Provider completion latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider", "result"},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enhancer_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enhancer_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.enhancementsTotal,
		m.recoveryStrategies,
		m.providerDuration,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
	)

	return m
}

// RecordEnhancement counts one finished enhancement.
func (m *Metrics) RecordEnhancement(outcome string) {
	if m == nil {
		return
	}
	m.enhancementsTotal.WithLabelValues(outcome).Inc()
}

// RecordStrategy counts which recovery strategy produced a result.
func (m *Metrics) RecordStrategy(strategy string) {
	if m == nil {
		return
	}
	m.recoveryStrategies.WithLabelValues(strategy).Inc()
}

// RecordProviderCall observes one provider round trip.
func (m *Metrics) RecordProviderCall(provider string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.providerDuration.WithLabelValues(provider, result).Observe(duration.Seconds())
}

// RecordHTTPRequest observes one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
