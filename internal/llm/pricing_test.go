package llm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

func TestPricing_Cost(t *testing.T) {
	tests := []struct {
		name     string
		pricing  llm.Pricing
		usage    llm.Usage
		expected float64
	}{
		{
			name:     "zero usage costs nothing",
			pricing:  llm.Pricing{InputPerToken: 0.0000014, OutputPerToken: 0.0000028},
			usage:    llm.Usage{},
			expected: 0,
		},
		{
			name:     "prompt only",
			pricing:  llm.Pricing{InputPerToken: 0.0000014, OutputPerToken: 0.0000028},
			usage:    llm.Usage{PromptTokens: 1000},
			expected: 0.0014,
		},
		{
			name:     "completion only",
			pricing:  llm.Pricing{InputPerToken: 0.0000014, OutputPerToken: 0.0000028},
			usage:    llm.Usage{CompletionTokens: 1000},
			expected: 0.0028,
		},
		{
			name:     "million tokens each side",
			pricing:  llm.Pricing{InputPerToken: 0.0000014, OutputPerToken: 0.0000028},
			usage:    llm.Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000},
			expected: 4.2,
		},
		{
			name:     "mixed usage",
			pricing:  llm.Pricing{InputPerToken: 0.0000002, OutputPerToken: 0.0000006},
			usage:    llm.Usage{PromptTokens: 150, CompletionTokens: 50},
			expected: 150*0.0000002 + 50*0.0000006,
		},
		{
			name:     "free tier",
			pricing:  llm.Pricing{},
			usage:    llm.Usage{PromptTokens: 5000, CompletionTokens: 5000},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expected, tt.pricing.Cost(tt.usage), 1e-12)
		})
	}
}

func TestPricing_Cost_Deterministic(t *testing.T) {
	pricing := llm.Pricing{InputPerToken: 0.00000015, OutputPerToken: 0.0000006}
	usage := llm.Usage{PromptTokens: 1234, CompletionTokens: 567}

	first := pricing.Cost(usage)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, pricing.Cost(usage))
	}
}

func TestPricing_Cost_MonotoneInUsage(t *testing.T) {
	pricing := llm.Pricing{InputPerToken: 0.0000014, OutputPerToken: 0.0000028}

	base := pricing.Cost(llm.Usage{PromptTokens: 100, CompletionTokens: 100})
	morePrompt := pricing.Cost(llm.Usage{PromptTokens: 200, CompletionTokens: 100})
	moreCompletion := pricing.Cost(llm.Usage{PromptTokens: 100, CompletionTokens: 200})

	require.Greater(t, morePrompt, base)
	require.Greater(t, moreCompletion, base)
}
