// Package telemetry exposes generation metrics for scraping. It implements
// llm.GenerationRecorder so the manager pushes every outcome through it.
package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

// Metrics holds the Prometheus collectors for the generation path.
type Metrics struct {
	registry *prometheus.Registry

	generations      *prometheus.CounterVec
	failures         *prometheus.CounterVec
	exhausted        prometheus.Counter
	failovers        prometheus.Counter
	promptTokens     *prometheus.CounterVec
	completionTokens *prometheus.CounterVec
	cost             *prometheus.CounterVec
}

// New creates and registers the metric set on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dandelion_generations_total",
			Help: "Successful generations by vendor and model.",
		}, []string{"vendor", "model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dandelion_generation_failures_total",
			Help: "Individual adapter failures by vendor and failure kind.",
		}, []string{"vendor", "kind"}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dandelion_generations_exhausted_total",
			Help: "Requests for which every provider failed.",
		}),
		failovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dandelion_failovers_total",
			Help: "Adapter attempts skipped over before a success.",
		}),
		promptTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dandelion_prompt_tokens_total",
			Help: "Prompt tokens consumed by vendor.",
		}, []string{"vendor"}),
		completionTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dandelion_completion_tokens_total",
			Help: "Completion tokens consumed by vendor.",
		}, []string{"vendor"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dandelion_cost_usd_total",
			Help: "Cumulative generation cost in USD by vendor.",
		}, []string{"vendor"}),
	}

	registry.MustRegister(
		m.generations, m.failures, m.exhausted, m.failovers,
		m.promptTokens, m.completionTokens, m.cost,
	)

	return m
}

// RecordSuccess counts one successful generation.
func (m *Metrics) RecordSuccess(_ context.Context, result *llm.GenerationResult, failovers int) {
	m.generations.WithLabelValues(result.Provider, result.Model).Inc()
	m.promptTokens.WithLabelValues(result.Provider).Add(float64(result.Usage.PromptTokens))
	m.completionTokens.WithLabelValues(result.Provider).Add(float64(result.Usage.CompletionTokens))
	m.cost.WithLabelValues(result.Provider).Add(result.Cost)
	m.failovers.Add(float64(failovers))
}

// RecordFailure counts an exhausted request and its per-vendor failures.
func (m *Metrics) RecordFailure(_ context.Context, failures []llm.Failure) {
	m.exhausted.Inc()
	for _, f := range failures {
		m.failures.WithLabelValues(f.Vendor, string(f.Kind)).Inc()
	}
}

// Handler returns the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
