// Package mistral provides the Mistral adapter over the shared
// chat-completions wire client.
package mistral

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/llm/chatwire"
)

const (
	vendorName     = "mistral"
	defaultBaseURL = "https://api.mistral.ai/v1"
	defaultModel   = "mistral-small-latest"
	requestTimeout = 30 * time.Second

	// Mistral Small pricing, USD per token ($0.20 / $0.60 per 1M tokens).
	inputCostPerToken  = 0.0000002
	outputCostPerToken = 0.0000006
)

// Adapter implements llm.Provider for the Mistral API.
type Adapter struct {
	cfg    llm.ProviderConfig
	logger *zap.Logger

	mu     sync.RWMutex
	client *chatwire.Client
}

// New creates a Mistral adapter from a validated configuration.
func New(cfg llm.ProviderConfig, logger *zap.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		cfg:    cfg,
		logger: logger.With(zap.String("provider", vendorName)),
	}, nil
}

// Initialize establishes the network client.
func (a *Adapter) Initialize(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.client = chatwire.New(chatwire.Config{
		Vendor:  vendorName,
		BaseURL: a.cfg.BaseURL,
		APIKey:  a.cfg.APIKey,
		Timeout: requestTimeout,
	})

	a.logger.Info("provider initialized", zap.String("model", a.cfg.Model))
	return nil
}

// Generate sends one completion request with the prompt as a single user
// message.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts *llm.GenerateOptions) (*llm.GenerationResult, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()

	if client == nil {
		return nil, llm.ErrNotInitialized
	}

	temperature := a.cfg.Temperature
	maxTokens := a.cfg.MaxTokens
	if opts != nil {
		if opts.Temperature != nil {
			temperature = *opts.Temperature
		}
		if opts.MaxTokens != nil {
			maxTokens = *opts.MaxTokens
		}
	}

	resp, err := client.Complete(ctx, chatwire.ChatRequest{
		Model: a.cfg.Model,
		Messages: []chatwire.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		a.logger.Error("generation failed", zap.Error(err))
		return nil, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	usage := llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	return &llm.GenerationResult{
		Content:    content,
		Model:      resp.Model,
		Provider:   vendorName,
		Usage:      usage,
		Cost:       a.Pricing().Cost(usage),
		FinishTime: time.Now(),
	}, nil
}

// TestConnection probes the models endpoint. Any failure is a false result.
func (a *Adapter) TestConnection(ctx context.Context) bool {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()

	if client == nil {
		return false
	}
	return client.ListModels(ctx) == nil
}

// Close releases the network client.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
	return nil
}

// IsConnected reports whether a live network client handle exists.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client != nil
}

// Name returns the vendor identifier.
func (a *Adapter) Name() string {
	return vendorName
}

// Pricing returns Mistral's per-token rates.
func (a *Adapter) Pricing() llm.Pricing {
	return llm.Pricing{
		InputPerToken:  inputCostPerToken,
		OutputPerToken: outputCostPerToken,
	}
}
