// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for API latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec
	RelayOutcomes     *prometheus.CounterVec

	LLMRequests *prometheus.CounterVec
	LLMDuration prometheus.Histogram
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_proxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_proxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "api_proxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_proxy_upstream_request_duration_seconds",
			Help:    "Relayed upstream call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_proxy_upstream_responses_total",
			Help: "Total relayed upstream responses by method and status code.",
		}, []string{"method", "status_code"}),

		RelayOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_proxy_relay_outcomes_total",
			Help: "Relay dispatch outcomes: success, upstream_error, no_response, failure.",
		}, []string{"outcome"}),

		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_proxy_llm_requests_total",
			Help: "Total chat completion calls by result.",
		}, []string{"result"}),

		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "api_proxy_llm_request_duration_seconds",
			Help:    "Chat completion call latency in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.RelayOutcomes,
		m.LLMRequests,
		m.LLMDuration,
	)

	return m
}

// The recording helpers below are safe to call on a nil *Metrics, so
// components built without metrics need no checks of their own.

// ObserveRequest records one inbound request.
func (m *Metrics) ObserveRequest(method string, status int, path string, d time.Duration) {
	if m == nil {
		return
	}
	labels := []string{NormalizeMethod(method), strconv.Itoa(status), NormalizePath(path)}
	m.RequestsTotal.WithLabelValues(labels...).Inc()
	m.RequestDuration.WithLabelValues(labels...).Observe(d.Seconds())
}

// ObserveUpstream records the latency of one outbound relay call,
// whether or not it produced a response.
func (m *Metrics) ObserveUpstream(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(NormalizeMethod(method)).Observe(d.Seconds())
}

// CountUpstreamResponse records the status of a relayed upstream response.
func (m *Metrics) CountUpstreamResponse(method string, status int) {
	if m == nil {
		return
	}
	m.UpstreamResponses.WithLabelValues(NormalizeMethod(method), strconv.Itoa(status)).Inc()
}

// CountRelayOutcome records how a relay exchange ended.
func (m *Metrics) CountRelayOutcome(outcome string) {
	if m == nil {
		return
	}
	m.RelayOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveLLM records one chat completion call and its result.
func (m *Metrics) ObserveLLM(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(result).Inc()
	m.LLMDuration.Observe(d.Seconds())
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
var knownPrefixes = []string{"/api/proxy", "/api/ask", "/healthz", "/proxy/status", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	if path == "/" {
		return "/"
	}
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}
