package llm

import "time"

// Usage tracks token consumption reported by a vendor for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult is the outcome of one successful generation call.
type GenerationResult struct {
	Content    string    `json:"content"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Usage      Usage     `json:"usage"`
	Cost       float64   `json:"cost"`
	FinishTime time.Time `json:"finish_time"`
}

// ProviderStatus is one row of the manager's provider listing.
type ProviderStatus struct {
	Vendor         string  `json:"vendor"`
	Priority       int     `json:"priority"`
	Connected      bool    `json:"connected"`
	CumulativeCost float64 `json:"cumulative_cost"`
}
