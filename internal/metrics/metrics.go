// Package metrics exposes prometheus counters for the recommendation
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wayfind"

// Metrics groups every counter the pipeline records.
type Metrics struct {
	registry *prometheus.Registry

	extractions       *prometheus.CounterVec
	fetchFailures     *prometheus.CounterVec
	feedback          *prometheus.CounterVec
	inferenceFailures *prometheus.CounterVec
	weatherCache      *prometheus.CounterVec
}

// New creates and registers the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Per-URL extraction outcomes by strategy.",
		}, []string{"strategy", "outcome"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Dropped URLs by failure reason.",
		}, []string{"reason"}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Classified feedback turns by status and deciding source.",
		}, []string{"status", "source"}),
		inferenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_failures_total",
			Help:      "Structured inference calls that fell back, by record shape.",
		}, []string{"shape"}),
		weatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_requests_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.extractions, m.fetchFailures, m.feedback, m.inferenceFailures, m.weatherCache)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Extraction records one URL's terminal strategy.
func (m *Metrics) Extraction(strategy string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.extractions.WithLabelValues(strategy, outcome).Inc()
}

// FetchFailure records a dropped URL.
func (m *Metrics) FetchFailure(reason string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(reason).Inc()
}

// Feedback records a classified turn.
func (m *Metrics) Feedback(status, source string) {
	if m == nil {
		return
	}
	m.feedback.WithLabelValues(status, source).Inc()
}

// InferenceFailure records a fallback taken at a component boundary.
func (m *Metrics) InferenceFailure(shape string) {
	if m == nil {
		return
	}
	m.inferenceFailures.WithLabelValues(shape).Inc()
}

// WeatherCache records a cache hit or miss.
func (m *Metrics) WeatherCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.weatherCache.WithLabelValues(result).Inc()
}
