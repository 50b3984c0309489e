// Package openai provides the OpenAI adapter built on the official SDK.
// Unlike the raw-wire vendors, request transport, pooling, and agent headers
// come from the SDK; this package only translates between the unified
// contract and SDK types and supplies OpenAI pricing.
package openai

import (
	"context"
	"errors"
	"sync"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

const (
	vendorName     = "openai"
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 30 * time.Second

	// GPT-4o mini pricing, USD per token ($0.15 / $0.60 per 1M tokens).
	inputCostPerToken  = 0.00000015
	outputCostPerToken = 0.0000006
)

// Adapter implements llm.Provider for the OpenAI API.
type Adapter struct {
	cfg    llm.ProviderConfig
	logger *zap.Logger

	mu     sync.RWMutex
	client *sdk.Client
}

// New creates an OpenAI adapter from a validated configuration.
func New(cfg llm.ProviderConfig, logger *zap.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Initialize constructs the SDK client with the credential, optional base
// URL override, and the fixed request timeout.
func (a *Adapter) Initialize(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	opts := []option.RequestOption{
		option.WithAPIKey(a.cfg.APIKey),
		option.WithRequestTimeout(requestTimeout),
		option.WithMaxRetries(0), // failover handles retries, not the SDK
	}
	if a.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.cfg.BaseURL))
	}

	client := sdk.NewClient(opts...)
	a.client = &client

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

	params := sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(a.cfg.Model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
	}
	if temperature > 0 {
		params.Temperature = sdk.Float(temperature)
	}
	if maxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(maxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		classified := a.classifyError(err)
		a.logger.Error("generation failed", zap.Error(classified))
		return nil, classified
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	usage := llm.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	return &llm.GenerationResult{
		Content:    content,
		Model:      string(resp.Model),
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

	_, err := client.Models.List(ctx)
	return err == nil
}

// Close releases the SDK client handle.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = nil
	return nil
}

// IsConnected reports whether a live SDK client handle exists.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client != nil
}

// Name returns the vendor identifier.
func (a *Adapter) Name() string {
	return vendorName
}

// Pricing returns OpenAI's per-token rates.
func (a *Adapter) Pricing() llm.Pricing {
	return llm.Pricing{
		InputPerToken:  inputCostPerToken,
		OutputPerToken: outputCostPerToken,
	}
}

// classifyError maps SDK errors onto the typed taxonomy.
func (a *Adapter) classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.TimeoutError{Vendor: vendorName, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{
			Vendor:     vendorName,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
		}
	}

	return err
}
