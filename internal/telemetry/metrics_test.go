package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

func TestMetrics_RecordSuccess(t *testing.T) {
	m := New()

	m.RecordSuccess(context.Background(), &llm.GenerationResult{
		Content:  "ok",
		Model:    "deepseek-chat",
		Provider: "deepseek",
		Usage:    llm.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		Cost:     0.0007,
	}, 2)

	require.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("deepseek", "deepseek-chat")))
	require.Equal(t, 100.0, testutil.ToFloat64(m.promptTokens.WithLabelValues("deepseek")))
	require.Equal(t, 50.0, testutil.ToFloat64(m.completionTokens.WithLabelValues("deepseek")))
	require.InDelta(t, 0.0007, testutil.ToFloat64(m.cost.WithLabelValues("deepseek")), 1e-12)
	require.Equal(t, 2.0, testutil.ToFloat64(m.failovers))
}

func TestMetrics_RecordFailure(t *testing.T) {
	m := New()

	m.RecordFailure(context.Background(), []llm.Failure{
		{Vendor: "deepseek", Kind: llm.FailureTimeout, Message: "deadline exceeded"},
		{Vendor: "mistral", Kind: llm.FailureUpstream, Message: "status 500"},
	})

	require.Equal(t, 1.0, testutil.ToFloat64(m.exhausted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("deepseek", "timeout")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("mistral", "upstream")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordSuccess(context.Background(), &llm.GenerationResult{
		Model:    "deepseek-chat",
		Provider: "deepseek",
	}, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "dandelion_generations_total")
}
