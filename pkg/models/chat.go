package models

// ChatOptions are the provider-agnostic generation options.
// Nil fields are left out of the request; adapters ignore fields
// their provider does not support.
type ChatOptions struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`
}

// ChatResponse represents a normalized chat completion response
type ChatResponse struct {
	Content string      `json:"content"`
	Model   string      `json:"model"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// TokenUsage represents token usage information
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Float returns a pointer to v, for filling ChatOptions
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for filling ChatOptions
func Int(v int) *int {
	return &v
}
