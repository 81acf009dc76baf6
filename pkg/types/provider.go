package types

import (
	"time"
)

// ProviderType identifies which adapter serves a provider configuration
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGoogle    ProviderType = "google"
	ProviderLocal     ProviderType = "local"
	ProviderOther     ProviderType = "other"
)

// AuthMethod determines how the API key is attached to outgoing requests
type AuthMethod string

const (
	AuthBearer AuthMethod = "bearer"
	AuthAPIKey AuthMethod = "api-key"
	AuthCustom AuthMethod = "custom"
)

// Capability represents a provider capability type
type Capability string

const (
	CapabilityChat      Capability = "chat"
	CapabilityEmbedding Capability = "embedding"
	CapabilityModels    Capability = "models"
)

const (
	DefaultMaxRetries     = 3
	DefaultTimeoutSeconds = 30

	// NoAPIKey is the placeholder stored for local providers without auth
	NoAPIKey = "none"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role" yaml:"role"` // user, assistant, system
	Content string `json:"content" yaml:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ProviderConfig contains configuration for a provider.
// Field tags follow the api_configurations table columns.
type ProviderConfig struct {
	// ID, UserID and Name are persistence metadata and do not affect requests
	ID     string `json:"id,omitempty" yaml:"id" mapstructure:"id"`
	UserID string `json:"user_id,omitempty" yaml:"user_id" mapstructure:"user_id"`
	Name   string `json:"name,omitempty" yaml:"name" mapstructure:"name"`

	// Provider selects the adapter
	Provider ProviderType `json:"provider" yaml:"provider" mapstructure:"provider"`

	// APIKey is the credential; "none" or empty means no auth for local providers
	APIKey string `json:"api_key" yaml:"api_key" mapstructure:"api_key"`

	// BaseURL is the HTTP origin the endpoints are joined to
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	AuthMethod AuthMethod `json:"auth_method,omitempty" yaml:"auth_method" mapstructure:"auth_method"`

	// Endpoint overrides; empty means the adapter default
	ChatEndpoint       string `json:"chat_endpoint,omitempty" yaml:"chat_endpoint" mapstructure:"chat_endpoint"`
	EmbeddingsEndpoint string `json:"embeddings_endpoint,omitempty" yaml:"embeddings_endpoint" mapstructure:"embeddings_endpoint"`
	ModelsEndpoint     string `json:"models_endpoint,omitempty" yaml:"models_endpoint" mapstructure:"models_endpoint"`

	ModelName      string `json:"model_name,omitempty" yaml:"model_name" mapstructure:"model_name"`
	EmbeddingModel string `json:"embedding_model,omitempty" yaml:"embedding_model" mapstructure:"embedding_model"`

	// CustomHeaders are merged into every request and win over computed headers
	CustomHeaders map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers" mapstructure:"custom_headers"`

	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// WithDefaults returns a copy with retry, timeout and auth defaults applied
func (c ProviderConfig) WithDefaults() ProviderConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.AuthMethod == "" {
		c.AuthMethod = AuthBearer
	}
	return c
}

// Timeout returns the per-attempt timeout
func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Redacted returns a copy safe for logs and reports
func (c ProviderConfig) Redacted() ProviderConfig {
	if c.APIKey != "" && c.APIKey != NoAPIKey {
		c.APIKey = "***"
	}
	if len(c.CustomHeaders) > 0 {
		headers := make(map[string]string, len(c.CustomHeaders))
		for k := range c.CustomHeaders {
			headers[k] = "***"
		}
		c.CustomHeaders = headers
	}
	return c
}
