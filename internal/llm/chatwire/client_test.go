package chatwire_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/llm/chatwire"
)

func newTestClient(serverURL string, timeout time.Duration) *chatwire.Client {
	return chatwire.New(chatwire.Config{
		Vendor:  "testvendor",
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: timeout,
	})
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatwire.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		require.Equal(t, "user", req.Messages[0].Role)
		require.Equal(t, "hello", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "test-model",
			"choices": [{"message": {"content": "hi there"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	defer client.Close()

	resp, err := client.Complete(context.Background(), chatwire.ChatRequest{
		Model:    "test-model",
		Messages: []chatwire.Message{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "hi there", resp.Choices[0].Message.Content)
	require.Equal(t, 10, resp.Usage.PromptTokens)
	require.Equal(t, 20, resp.Usage.CompletionTokens)
	require.Equal(t, 30, resp.Usage.TotalTokens)
}

func TestClient_Complete_UpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: "rate limit exceeded"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "invalid api key"},
		{name: "server error", status: http.StatusInternalServerError, body: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL, 5*time.Second)
			defer client.Close()

			_, err := client.Complete(context.Background(), chatwire.ChatRequest{Model: "m"})

			var upstream *llm.UpstreamError
			require.ErrorAs(t, err, &upstream)
			require.Equal(t, "testvendor", upstream.Vendor)
			require.Equal(t, tt.status, upstream.StatusCode)
			require.Equal(t, tt.body, upstream.Message)
		})
	}
}

func TestClient_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 50*time.Millisecond)
	defer client.Close()

	_, err := client.Complete(context.Background(), chatwire.ChatRequest{Model: "m"})

	var timeout *llm.TimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, "testvendor", timeout.Vendor)
}

func TestClient_Complete_CallerCancelled(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection read;
		// otherwise it never observes the client disconnect and the handler
		// (and the deferred server.Close) block forever.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Complete(ctx, chatwire.ChatRequest{Model: "m"})
	require.ErrorIs(t, err, context.Canceled)

	var timeout *llm.TimeoutError
	require.False(t, errors.As(err, &timeout), "cancellation must not classify as a timeout")
}

func TestClient_ListModels(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/models", r.URL.Path)
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 5*time.Second)
		defer client.Close()

		require.NoError(t, client.ListModels(context.Background()))
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := newTestClient(server.URL, 5*time.Second)
		defer client.Close()

		err := client.ListModels(context.Background())

		var upstream *llm.UpstreamError
		require.ErrorAs(t, err, &upstream)
		require.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	})
}
