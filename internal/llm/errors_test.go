package llm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

func TestTimeoutError_Unwrap(t *testing.T) {
	err := &llm.TimeoutError{Vendor: "deepseek", Cause: context.DeadlineExceeded}

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "deepseek")
}

func TestUpstreamError_Message(t *testing.T) {
	err := &llm.UpstreamError{Vendor: "mistral", StatusCode: 429, Message: "rate limited"}

	require.Contains(t, err.Error(), "mistral")
	require.Contains(t, err.Error(), "429")
	require.Contains(t, err.Error(), "rate limited")
}

func TestConfigurationError_Message(t *testing.T) {
	err := &llm.ConfigurationError{Vendor: "openai", Reason: "missing API key"}

	require.Contains(t, err.Error(), "openai")
	require.Contains(t, err.Error(), "missing API key")
}

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	// Errors classified by type survive fmt.Errorf %w wrapping.
	wrapped := fmt.Errorf("adapter call: %w",
		&llm.UpstreamError{Vendor: "deepseek", StatusCode: 500, Message: "server error"})

	var upstream *llm.UpstreamError
	require.ErrorAs(t, wrapped, &upstream)
	require.Equal(t, 500, upstream.StatusCode)
}

func TestAllProvidersFailedError_Message(t *testing.T) {
	err := &llm.AllProvidersFailedError{Failures: []llm.Failure{
		{Vendor: "deepseek", Kind: llm.FailureTimeout, Message: "deadline exceeded"},
		{Vendor: "mistral", Kind: llm.FailureUpstream, Message: "status 500"},
	}}

	msg := err.Error()
	require.Contains(t, msg, "all 2 providers failed")
	require.Contains(t, msg, "deepseek (timeout)")
	require.Contains(t, msg, "mistral (upstream)")
}

func TestSentinelErrors_Distinct(t *testing.T) {
	require.NotErrorIs(t, llm.ErrNotInitialized, llm.ErrNoProvidersAvailable)
	require.False(t, errors.Is(llm.ErrNoProvidersAvailable, llm.ErrNotInitialized))
}
