package factory

import (
	"fmt"
	"time"

	"github.com/asystent-radnego/common-go/pkg/interfaces"
	"github.com/asystent-radnego/common-go/pkg/types"
)

// ConfigBuilder provides a fluent interface for building provider configurations
type ConfigBuilder struct {
	config types.ProviderConfig
	err    error
}

// NewConfigBuilder creates a builder for the given provider
func NewConfigBuilder(provider types.ProviderType) *ConfigBuilder {
	return &ConfigBuilder{
		config: types.ProviderConfig{
			Provider:       provider,
			Name:           string(provider),
			AuthMethod:     types.AuthBearer,
			MaxRetries:     types.DefaultMaxRetries,
			TimeoutSeconds: types.DefaultTimeoutSeconds,
		},
	}
}

// ConfigBuilderFrom starts a builder from an existing configuration
func ConfigBuilderFrom(cfg types.ProviderConfig) *ConfigBuilder {
	b := NewConfigBuilder(cfg.Provider)
	b.config = cfg.WithDefaults()
	if len(cfg.CustomHeaders) > 0 {
		b.config.CustomHeaders = make(map[string]string, len(cfg.CustomHeaders))
		for k, v := range cfg.CustomHeaders {
			b.config.CustomHeaders[k] = v
		}
	}
	return b
}

// WithID sets the persisted configuration id
func (b *ConfigBuilder) WithID(id string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.ID = id
	return b
}

// WithName sets the display name
func (b *ConfigBuilder) WithName(name string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.Name = name
	return b
}

// WithAPIKey sets the API key for the provider
func (b *ConfigBuilder) WithAPIKey(apiKey string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if apiKey == "" {
		b.err = fmt.Errorf("API key cannot be empty for provider %s", b.config.Provider)
		return b
	}
	b.config.APIKey = apiKey
	return b
}

// WithoutAuth marks the provider as not requiring a key
func (b *ConfigBuilder) WithoutAuth() *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.APIKey = types.NoAPIKey
	return b
}

// WithBaseURL sets the base URL for the provider API
func (b *ConfigBuilder) WithBaseURL(baseURL string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.BaseURL = baseURL
	return b
}

// WithAuthMethod sets how the key is attached to requests
func (b *ConfigBuilder) WithAuthMethod(method types.AuthMethod) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	switch method {
	case types.AuthBearer, types.AuthAPIKey, types.AuthCustom:
		b.config.AuthMethod = method
	default:
		b.err = fmt.Errorf("unknown auth method %q", method)
	}
	return b
}

// WithModel sets the chat model
func (b *ConfigBuilder) WithModel(model string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.ModelName = model
	return b
}

// WithEmbeddingModel sets the embedding model
func (b *ConfigBuilder) WithEmbeddingModel(model string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.EmbeddingModel = model
	return b
}

// WithEndpoints overrides the adapter default paths. Empty values keep the default.
func (b *ConfigBuilder) WithEndpoints(chat, embeddings, models string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	b.config.ChatEndpoint = chat
	b.config.EmbeddingsEndpoint = embeddings
	b.config.ModelsEndpoint = models
	return b
}

// WithHeader adds a custom header
func (b *ConfigBuilder) WithHeader(key, value string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if b.config.CustomHeaders == nil {
		b.config.CustomHeaders = make(map[string]string)
	}
	b.config.CustomHeaders[key] = value
	return b
}

// WithHeaders adds several custom headers
func (b *ConfigBuilder) WithHeaders(headers map[string]string) *ConfigBuilder {
	for key, value := range headers {
		b.WithHeader(key, value)
	}
	return b
}

// WithTimeout sets the per-attempt timeout, rounded up to whole seconds
func (b *ConfigBuilder) WithTimeout(timeout time.Duration) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if timeout <= 0 {
		b.err = fmt.Errorf("timeout must be positive")
		return b
	}
	b.config.TimeoutSeconds = int((timeout + time.Second - 1) / time.Second)
	return b
}

// WithMaxRetries sets the attempt ceiling
func (b *ConfigBuilder) WithMaxRetries(maxRetries int) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if maxRetries <= 0 {
		b.err = fmt.Errorf("max retries must be positive")
		return b
	}
	b.config.MaxRetries = maxRetries
	return b
}

// Build validates the configuration and returns it
func (b *ConfigBuilder) Build() (types.ProviderConfig, error) {
	if b.err != nil {
		return types.ProviderConfig{}, b.err
	}
	if b.config.Provider == "" {
		return types.ProviderConfig{}, fmt.Errorf("provider is required")
	}
	if b.config.BaseURL == "" {
		return types.ProviderConfig{}, fmt.Errorf("base URL is required for provider %s", b.config.Provider)
	}
	if b.config.APIKey == "" && b.config.Provider != types.ProviderLocal {
		return types.ProviderConfig{}, fmt.Errorf("API key is required for provider %s", b.config.Provider)
	}
	return b.config, nil
}

// BuildAdapter builds the configuration and resolves it through source
func (b *ConfigBuilder) BuildAdapter(source interfaces.AdapterSource) (interfaces.Adapter, error) {
	cfg, err := b.Build()
	if err != nil {
		return nil, err
	}
	return source.GetAdapter(cfg)
}
