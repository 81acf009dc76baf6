package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/asystent-radnego/common-go/pkg/interfaces"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/providers/llm"
	"github.com/asystent-radnego/common-go/pkg/types"
)

// ErrUnsupportedProvider is returned by GetAdapter for unregistered providers
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Constructor builds an adapter for a configuration. Construction validates
// the configuration and performs no network calls.
type Constructor func(cfg types.ProviderConfig, opts ...base.Option) (interfaces.Adapter, error)

// ProviderRegistry maps provider ids to adapter constructors
type ProviderRegistry interface {
	// RegisterAdapter binds a provider id to a constructor. Later
	// registrations overwrite earlier ones.
	RegisterAdapter(provider types.ProviderType, ctor Constructor) error

	// UnregisterAdapter removes a binding and reports whether it existed
	UnregisterAdapter(provider types.ProviderType) bool

	// GetAdapter constructs a new adapter for cfg.Provider
	GetAdapter(cfg types.ProviderConfig) (interfaces.Adapter, error)

	// IsSupported reports whether a constructor is registered for provider
	IsSupported(provider types.ProviderType) bool

	// SupportedProviders returns the registered provider ids in sorted order
	SupportedProviders() []types.ProviderType
}

// providerRegistry is the concrete implementation of ProviderRegistry
type providerRegistry struct {
	mu sync.RWMutex

	// constructors stores the binding for each provider id
	constructors map[types.ProviderType]Constructor

	// opts are passed to every constructed adapter
	opts []base.Option
}

// NewProviderRegistry creates an empty registry. opts are applied to every
// adapter it constructs.
func NewProviderRegistry(opts ...base.Option) ProviderRegistry {
	return &providerRegistry{
		constructors: make(map[types.ProviderType]Constructor),
		opts:         opts,
	}
}

// NewDefaultRegistry creates a registry with the built-in adapters bound.
// "other" is served by the OpenAI adapter as the generic compatible fallback.
func NewDefaultRegistry(opts ...base.Option) ProviderRegistry {
	r := NewProviderRegistry(opts...)
	for provider, ctor := range DefaultConstructors() {
		// cannot fail: ids and constructors are non-empty
		_ = r.RegisterAdapter(provider, ctor)
	}
	return r
}

// DefaultConstructors returns the built-in bindings
func DefaultConstructors() map[types.ProviderType]Constructor {
	return map[types.ProviderType]Constructor{
		types.ProviderOpenAI:    Wrap(llm.NewOpenAIAdapter),
		types.ProviderOther:     Wrap(llm.NewOpenAIAdapter),
		types.ProviderLocal:     Wrap(llm.NewLocalAdapter),
		types.ProviderAnthropic: Wrap(llm.NewAnthropicAdapter),
		types.ProviderGoogle:    Wrap(llm.NewGoogleAdapter),
	}
}

// Wrap adapts a concrete adapter constructor to a Constructor
func Wrap[T interfaces.Adapter](ctor func(types.ProviderConfig, ...base.Option) (T, error)) Constructor {
	return func(cfg types.ProviderConfig, opts ...base.Option) (interfaces.Adapter, error) {
		adapter, err := ctor(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	}
}

// RegisterAdapter binds a provider id to a constructor
func (r *providerRegistry) RegisterAdapter(provider types.ProviderType, ctor Constructor) error {
	if provider == "" {
		return fmt.Errorf("provider id cannot be empty")
	}
	if ctor == nil {
		return fmt.Errorf("constructor for provider %s cannot be nil", provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.constructors[provider] = ctor
	return nil
}

// UnregisterAdapter removes a binding
func (r *providerRegistry) UnregisterAdapter(provider types.ProviderType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[provider]; !exists {
		return false
	}
	delete(r.constructors, provider)
	return true
}

// GetAdapter constructs a new adapter for cfg
func (r *providerRegistry) GetAdapter(cfg types.ProviderConfig) (interfaces.Adapter, error) {
	r.mu.RLock()
	ctor, exists := r.constructors[cfg.Provider]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}

	adapter, err := ctor(cfg, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", cfg.Provider, err)
	}
	return adapter, nil
}

// IsSupported reports whether provider is registered
func (r *providerRegistry) IsSupported(provider types.ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.constructors[provider]
	return exists
}

// SupportedProviders returns all registered provider ids
func (r *providerRegistry) SupportedProviders() []types.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]types.ProviderType, 0, len(r.constructors))
	for provider := range r.constructors {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

	return providers
}
