package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/draftflow/draftflow/pkg/llm"
)

var (
	llmCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftflow_llm_calls_total",
			Help: "Total LLM call attempts by provider, model, and result",
		},
		[]string{"provider", "model", "result"},
	)

	llmErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftflow_llm_errors_total",
			Help: "Total LLM call failures by provider and error kind",
		},
		[]string{"provider", "kind"},
	)

	llmTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftflow_llm_tokens_total",
			Help: "Total tokens consumed by provider and direction",
		},
		[]string{"provider", "direction"},
	)

	llmCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftflow_llm_cost_usd_total",
			Help: "Accumulated LLM spend in USD by provider",
		},
		[]string{"provider"},
	)

	llmLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "draftflow_llm_latency_seconds",
			Help:    "LLM call latency by provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// observeOutcome mirrors a call outcome into the Prometheus registry.
func observeOutcome(outcome llm.CallOutcome) {
	result := "success"
	if !outcome.Success {
		result = "error"
		llmErrors.WithLabelValues(outcome.Provider, string(outcome.Kind)).Inc()
	}

	llmCalls.WithLabelValues(outcome.Provider, outcome.Model, result).Inc()
	llmTokens.WithLabelValues(outcome.Provider, "input").Add(float64(outcome.InputTokens))
	llmTokens.WithLabelValues(outcome.Provider, "output").Add(float64(outcome.OutputTokens))
	llmCost.WithLabelValues(outcome.Provider).Add(outcome.CostUSD)
	llmLatency.WithLabelValues(outcome.Provider).Observe(outcome.Latency.Seconds())
}
