package mistral_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/llm/chatwire"
	"github.com/Napiersnotes/Dandelions/internal/llm/mistral"
)

func testConfig(baseURL string) llm.ProviderConfig {
	return llm.ProviderConfig{
		Vendor:  "mistral",
		APIKey:  "test-key",
		BaseURL: baseURL,
		Enabled: true,
	}
}

func TestNew_Validation(t *testing.T) {
	cfg := testConfig("")
	cfg.APIKey = ""

	_, err := mistral.New(cfg, zap.NewNop())

	var confErr *llm.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestAdapter_Lifecycle(t *testing.T) {
	adapter, err := mistral.New(testConfig(""), zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "mistral", adapter.Name())

	require.False(t, adapter.IsConnected())
	require.NoError(t, adapter.Initialize(context.Background()))
	require.True(t, adapter.IsConnected())
	require.NoError(t, adapter.Close())
	require.False(t, adapter.IsConnected())

	_, genErr := adapter.Generate(context.Background(), "hello", nil)
	require.ErrorIs(t, genErr, llm.ErrNotInitialized)
}

func TestAdapter_Generate(t *testing.T) {
	var gotReq chatwire.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_, _ = w.Write([]byte(`{
			"model": "mistral-small-latest",
			"choices": [{"message": {"content": "bonjour"}}],
			"usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
		}`))
	}))
	defer server.Close()

	adapter, err := mistral.New(testConfig(server.URL), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, adapter.Initialize(context.Background()))
	defer adapter.Close()

	result, err := adapter.Generate(context.Background(), "say hello", nil)
	require.NoError(t, err)

	require.Equal(t, "bonjour", result.Content)
	require.Equal(t, "mistral", result.Provider)
	require.Equal(t, "mistral-small-latest", gotReq.Model)

	// $0.20/1M input + $0.60/1M output.
	require.InDelta(t, 100*0.0000002+50*0.0000006, result.Cost, 1e-12)
}

func TestAdapter_Pricing(t *testing.T) {
	adapter, err := mistral.New(testConfig(""), zap.NewNop())
	require.NoError(t, err)

	pricing := adapter.Pricing()
	require.InDelta(t, 0.0000002, pricing.InputPerToken, 1e-15)
	require.InDelta(t, 0.0000006, pricing.OutputPerToken, 1e-15)
}
