package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across adapters and the manager.
var (
	// ErrNotInitialized is returned when an operation requires a live
	// network client and none exists (called before Initialize or after
	// Close/Shutdown).
	ErrNotInitialized = errors.New("provider not initialized")

	// ErrAlreadyInitialized is returned by Manager.Initialize when the
	// manager has already left the Uninitialized state.
	ErrAlreadyInitialized = errors.New("manager already initialized")

	// ErrNoProvidersAvailable is returned by Manager.Initialize when zero
	// adapters came up usable.
	ErrNoProvidersAvailable = errors.New("no providers available")
)

// ConfigurationError reports an invalid provider configuration entry.
// It is fatal for that one adapter only.
type ConfigurationError struct {
	Vendor string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %q configuration invalid: %s", e.Vendor, e.Reason)
}

// UpstreamError reports a non-success HTTP response from a vendor.
// It is recoverable at the manager level via failover.
type UpstreamError struct {
	Vendor     string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q returned status %d: %s", e.Vendor, e.StatusCode, e.Message)
}

// TimeoutError reports that a vendor did not respond within the adapter's
// fixed request timeout. Recoverable via failover.
type TimeoutError struct {
	Vendor string
	Cause  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timed out: %v", e.Vendor, e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// FailureKind classifies a single adapter failure so the manager can branch
// deterministically instead of catching a generic error.
type FailureKind string

const (
	FailureTimeout        FailureKind = "timeout"
	FailureUpstream       FailureKind = "upstream"
	FailureNotInitialized FailureKind = "not_initialized"
	FailureConfiguration  FailureKind = "configuration"
	FailureUnknown        FailureKind = "unknown"
)

// Failure records the outcome of one failed call to one adapter.
type Failure struct {
	Vendor  string      `json:"vendor"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// newFailure classifies an adapter error into a Failure record.
func newFailure(vendor string, err error) Failure {
	f := Failure{Vendor: vendor, Kind: FailureUnknown, Message: err.Error()}

	var upstream *UpstreamError
	var timeout *TimeoutError
	var configuration *ConfigurationError

	switch {
	case errors.As(err, &timeout):
		f.Kind = FailureTimeout
	case errors.As(err, &upstream):
		f.Kind = FailureUpstream
	case errors.As(err, &configuration):
		f.Kind = FailureConfiguration
	case errors.Is(err, ErrNotInitialized):
		f.Kind = FailureNotInitialized
	}

	return f
}

// AllProvidersFailedError is raised when every enabled adapter failed for a
// single generate call. Failures are ordered by the priority in which the
// adapters were tried; nothing is dropped.
type AllProvidersFailedError struct {
	Failures []Failure
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", f.Vendor, f.Kind, f.Message))
	}
	return fmt.Sprintf("all %d providers failed: %s", len(e.Failures), strings.Join(parts, "; "))
}
