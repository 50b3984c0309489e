package llm

// Pricing holds a vendor's hard-coded per-token USD rates.
type Pricing struct {
	InputPerToken  float64 `json:"input_per_token"`
	OutputPerToken float64 `json:"output_per_token"`
}

// Cost computes the monetary cost of one call from its token usage.
// It is a pure function: no I/O, no side effects, deterministic for fixed
// rates, and non-negative for non-negative usage.
func (p Pricing) Cost(usage Usage) float64 {
	inputCost := float64(usage.PromptTokens) * p.InputPerToken
	outputCost := float64(usage.CompletionTokens) * p.OutputPerToken
	return inputCost + outputCost
}
