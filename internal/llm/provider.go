// Package llm defines the provider abstraction shared by every vendor
// adapter and the manager that routes generation requests across them.
// Adapters translate between the unified request/response contract and one
// vendor's wire format; the manager owns adapter lifecycle, priority-ordered
// failover, and usage/cost accounting.
package llm

import "context"

// Provider is the capability contract every vendor adapter must satisfy.
// The manager is polymorphic over this set and never depends on
// vendor-specific fields.
type Provider interface {
	// Initialize establishes the vendor network client (connection pool,
	// credential headers, fixed request timeout). It is not guaranteed to be
	// idempotent; call it at most once per adapter lifetime.
	Initialize(ctx context.Context) error

	// Generate sends one chat-style completion request containing the prompt
	// as a single user message, with the configured generation parameters
	// merged with any per-call overrides.
	//
	// Returns ErrNotInitialized when called before Initialize or after
	// Close, *UpstreamError on a non-success vendor response, and
	// *TimeoutError when the fixed request timeout elapses.
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (*GenerationResult, error)

	// TestConnection issues a lightweight vendor probe (list models) and
	// reports reachability. It never returns an error; any failure is a
	// false result.
	TestConnection(ctx context.Context) bool

	// Close releases the network client. Safe to call before Initialize and
	// safe to call repeatedly.
	Close() error

	// IsConnected reports whether a live network client handle exists.
	IsConnected() bool

	// Name returns the vendor identifier.
	Name() string

	// Pricing returns the vendor's hard-coded per-token rates so the manager
	// can display and aggregate comparable costs across vendors.
	Pricing() Pricing
}

// GenerateOptions carries per-call overrides for generation parameters.
// Nil pointer fields fall back to the adapter's configured values.
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   *int
}

// ProviderConfig holds one vendor's connection and generation parameters.
// Instances are immutable once constructed and validated exactly once at the
// configuration boundary.
type ProviderConfig struct {
	Vendor      string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Priority    int
	Enabled     bool
}

// Validate checks the invariants an enabled configuration must satisfy.
func (c ProviderConfig) Validate() error {
	if c.Vendor == "" {
		return &ConfigurationError{Vendor: c.Vendor, Reason: "vendor name is required"}
	}
	if c.Enabled && c.APIKey == "" {
		return &ConfigurationError{Vendor: c.Vendor, Reason: "API key is required for enabled provider"}
	}
	return nil
}

// GenerationRecorder observes generation outcomes for accounting sinks such
// as telemetry and the usage-history store. Implementations must be safe for
// concurrent use.
type GenerationRecorder interface {
	// RecordSuccess is called after a generation succeeds. failovers is the
	// number of adapters that failed before the successful one.
	RecordSuccess(ctx context.Context, result *GenerationResult, failovers int)

	// RecordFailure is called when every adapter failed for one request.
	RecordFailure(ctx context.Context, failures []Failure)
}
