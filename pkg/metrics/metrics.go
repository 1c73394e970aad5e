// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package metrics exposes Prometheus collectors describing relay traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOptions          = "options"
	OutcomeRelayed          = "relayed"
	OutcomeBadRequest       = "bad_request"
	OutcomeServerError      = "server_error"
	OutcomeMethodNotAllowed = "method_not_allowed"
)

// methodOther labels every method the relay does not route.
const methodOther = "other"

// Latency buckets in milliseconds.
var latencyBuckets = []float64{
	5, 10, 25,
	50, 100, 250,
	500, 1000, 2500,
	5000, 10000, 30000,
}

// Recorder owns a private registry so tests and embedders never collide on
// the global default registerer.
type Recorder struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewRecorder registers the relay collectors plus the Go and process
// collectors on a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_relay_requests_total",
				Help: "Total number of inbound requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		upstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_relay_upstream_latency_ms",
				Help:    "Latency of outbound calls in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest counts one inbound request. Methods other than POST and
// OPTIONS share one label value so clients cannot mint new series. Safe on a
// nil Recorder.
func (r *Recorder) ObserveRequest(method, outcome string) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(methodLabel(method), outcome).Inc()
}

func methodLabel(method string) string {
	switch method {
	case http.MethodPost, http.MethodOptions:
		return method
	default:
		return methodOther
	}
}

// ObserveUpstream records the duration of one outbound call. Safe on a nil
// Recorder.
func (r *Recorder) ObserveUpstream(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.upstreamLatency.WithLabelValues(outcome).Observe(float64(d) / float64(time.Millisecond))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
