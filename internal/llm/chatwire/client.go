// Package chatwire implements the OpenAI-compatible chat-completions wire
// protocol shared by several vendors (DeepSeek, Mistral, and most hosted
// gateways). Adapters own a Client per connection and translate between the
// unified contract and this wire format.
package chatwire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

// Config contains the connection parameters for one vendor endpoint.
type Config struct {
	Vendor  string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an HTTP client for one OpenAI-compatible vendor endpoint.
// The credential and the fixed request timeout are set once at construction.
type Client struct {
	vendor     string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client. The timeout bounds every request issued through it.
func New(cfg Config) *Client {
	return &Client{
		vendor:  cfg.Vendor,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ChatRequest is the chat-completions request body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the chat-completions response body.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request.
// Non-success statuses surface as *llm.UpstreamError; an elapsed request
// timeout surfaces as *llm.TimeoutError. Caller cancellation is returned
// as the context error unchanged.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &llm.UpstreamError{
			Vendor:     c.vendor,
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(body)),
		}
	}

	var chatResp ChatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	return &chatResp, nil
}

// ListModels issues the lightweight GET /models probe.
func (c *Client) ListModels(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &llm.UpstreamError{
			Vendor:     c.vendor,
			StatusCode: resp.StatusCode,
			Message:    "models probe failed",
		}
	}
	return nil
}

// Close releases pooled connections. The client must not be used afterwards.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// classifyTransportError maps transport failures onto the typed taxonomy.
// Caller cancellation is passed through so failover stops instead of
// recording the aborted attempt.
func (c *Client) classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &llm.TimeoutError{Vendor: c.vendor, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.TimeoutError{Vendor: c.vendor, Cause: err}
	}

	return fmt.Errorf("request failed: %w", err)
}
