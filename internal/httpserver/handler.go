// Package httpserver exposes the bot to external clients: a generate
// endpoint for callers, read-only provider/usage views for the dashboard,
// and a metrics scrape endpoint. It consumes only the manager's public API.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Napiersnotes/Dandelions/internal/cache"
	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/observability"
	"github.com/Napiersnotes/Dandelions/internal/usage"
)

const recentUsageLimit = 100

// UsageReader is the slice of the usage store the dashboard needs.
type UsageReader interface {
	Summary(ctx context.Context) ([]usage.VendorSummary, error)
	Recent(ctx context.Context, limit int) ([]usage.Record, error)
}

// GenerateRequest is the caller-facing request body.
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// errorResponse is the uniform error body. Failures is present only when
// every provider was exhausted.
type errorResponse struct {
	Error    string        `json:"error"`
	Failures []llm.Failure `json:"failures,omitempty"`
}

// Handler handles HTTP requests.
type Handler struct {
	manager  *llm.Manager
	cache    cache.ResponseCache
	cacheTTL time.Duration
	usage    UsageReader
	events   *observability.EventBus
	metrics  http.Handler
}

// NewHandler creates a new HTTP handler. usage and metrics may be nil when
// those features are disabled; the cache should be a Noop rather than nil.
func NewHandler(
	manager *llm.Manager,
	responseCache cache.ResponseCache,
	cacheTTL time.Duration,
	usageReader UsageReader,
	events *observability.EventBus,
	metricsHandler http.Handler,
) *Handler {
	if responseCache == nil {
		responseCache = cache.NewNoop()
	}
	return &Handler{
		manager:  manager,
		cache:    responseCache,
		cacheTTL: cacheTTL,
		usage:    usageReader,
		events:   events,
		metrics:  metricsHandler,
	}
}

// HandleGenerate processes generation requests with cache lookup, manager
// failover, and cache fill.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}

	opts := &llm.GenerateOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	logger := observability.FromContext(ctx)

	key := cache.Key(req.Prompt, opts)
	if cached, err := h.cache.Get(ctx, key); err == nil {
		logger.Info("cache hit", observability.String("vendor", cached.Provider))
		writeJSON(w, http.StatusOK, cached)
		return
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("cache get failed, continuing without cache", observability.Error(err))
	}

	result, err := h.manager.Generate(ctx, req.Prompt, opts)
	if err != nil {
		h.writeGenerateError(ctx, w, err)
		return
	}

	// Tag the request context with the winning vendor so every log line
	// below carries it.
	ctx = observability.WithProvider(ctx, result.Provider)
	ctx = observability.WithModel(ctx, result.Model)
	logger = observability.FromContext(ctx)
	logger.Info("generation completed",
		observability.Int("prompt_tokens", result.Usage.PromptTokens),
		observability.Int("completion_tokens", result.Usage.CompletionTokens),
		observability.Float64("cost", result.Cost),
	)

	if h.events != nil {
		h.events.Publish(ctx, "generation.completed", map[string]interface{}{
			"vendor":            result.Provider,
			"model":             result.Model,
			"prompt_tokens":     result.Usage.PromptTokens,
			"completion_tokens": result.Usage.CompletionTokens,
			"cost":              result.Cost,
		})
	}

	if err := h.cache.Set(ctx, key, result, h.cacheTTL); err != nil {
		logger.Warn("failed to store in cache", observability.Error(err))
	}

	writeJSON(w, http.StatusOK, result)
}

// writeGenerateError maps manager errors onto HTTP statuses. Callers only
// ever see one aggregate failure, never an individual failed-over vendor
// error.
func (h *Handler) writeGenerateError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := observability.FromContext(ctx)
	logger.Error("generation failed", observability.Error(err))

	var exhausted *llm.AllProvidersFailedError
	switch {
	case errors.As(err, &exhausted):
		if h.events != nil {
			h.events.Publish(ctx, "generation.exhausted", map[string]interface{}{
				"failures": len(exhausted.Failures),
			})
		}
		writeError(w, http.StatusBadGateway, "all providers failed", exhausted.Failures)
	case errors.Is(err, llm.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "service not ready", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// 499-style client abort; nothing useful to send.
		writeError(w, http.StatusServiceUnavailable, "request cancelled", nil)
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

// HandleProviders serves the dashboard's provider listing.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers":  h.manager.ListProviders(),
		"total_cost": h.manager.TotalCost(),
	})
}

// HandleUsage serves the persisted per-vendor usage summary.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	if h.usage == nil {
		writeError(w, http.StatusNotFound, "usage history is disabled", nil)
		return
	}

	summary, err := h.usage.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read usage history", nil)
		return
	}
	recent, err := h.usage.Recent(r.Context(), recentUsageLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read usage history", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vendors": summary,
		"recent":  recent,
	})
}

// HandleMetrics serves the Prometheus scrape endpoint.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeError(w, http.StatusNotFound, "metrics are disabled", nil)
		return
	}
	h.metrics.ServeHTTP(w, r)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string, failures []llm.Failure) {
	writeJSON(w, status, errorResponse{Error: message, Failures: failures})
}
