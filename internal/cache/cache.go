// Package cache provides an optional exact-match response cache in front of
// the provider manager. It sits in the HTTP layer so failover semantics stay
// untouched; a hit means the manager is never consulted.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

// ErrCacheMiss is returned by Get when no entry exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// ResponseCache stores generation results keyed by request identity.
type ResponseCache interface {
	// Get returns the cached result for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (*llm.GenerationResult, error)

	// Set stores a result under key for the given TTL.
	Set(ctx context.Context, key string, result *llm.GenerationResult, ttl time.Duration) error

	// Close releases the cache backend.
	Close() error
}

// Key derives a deterministic cache key from the prompt and the effective
// per-call overrides.
func Key(prompt string, opts *llm.GenerateOptions) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	if opts != nil {
		if opts.Temperature != nil {
			fmt.Fprintf(h, "|t=%v", *opts.Temperature)
		}
		if opts.MaxTokens != nil {
			fmt.Fprintf(h, "|m=%d", *opts.MaxTokens)
		}
	}
	return "gen:" + hex.EncodeToString(h.Sum(nil))
}

// Noop is the disabled cache: every Get misses, every Set is dropped.
type Noop struct{}

// NewNoop creates a disabled cache.
func NewNoop() *Noop {
	return &Noop{}
}

// Get always misses.
func (*Noop) Get(_ context.Context, _ string) (*llm.GenerationResult, error) {
	return nil, ErrCacheMiss
}

// Set drops the entry.
func (*Noop) Set(_ context.Context, _ string, _ *llm.GenerationResult, _ time.Duration) error {
	return nil
}

// Close is a no-op.
func (*Noop) Close() error {
	return nil
}
