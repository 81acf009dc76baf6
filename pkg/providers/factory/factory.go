package factory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/asystent-radnego/common-go/pkg/interfaces"
	"github.com/asystent-radnego/common-go/pkg/providers/registry"
	"github.com/asystent-radnego/common-go/pkg/types"
)

// AdapterFactory resolves provider configurations to adapters and reuses
// an adapter while its configuration is unchanged
type AdapterFactory interface {
	// GetAdapter returns the cached adapter for cfg or constructs one
	GetAdapter(cfg types.ProviderConfig) (interfaces.Adapter, error)

	// CreateChatService returns the chat side of the adapter for cfg
	CreateChatService(cfg types.ProviderConfig) (interfaces.ChatService, error)

	// CreateEmbeddingService returns the embedding side of the adapter for cfg
	CreateEmbeddingService(cfg types.ProviderConfig) (interfaces.EmbeddingService, error)

	// ClearCache drops every cached adapter
	ClearCache()

	// ClearCacheForConfig drops the adapters built for a stored config id
	ClearCacheForConfig(configID string)

	// Len returns the number of cached adapters
	Len() int
}

type cacheEntry struct {
	adapter  interfaces.Adapter
	configID string
}

// adapterFactory is the concrete implementation of AdapterFactory
type adapterFactory struct {
	registry registry.ProviderRegistry

	// cache maps a configuration fingerprint to its adapter
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

// NewAdapterFactory creates a caching factory on top of reg
func NewAdapterFactory(reg registry.ProviderRegistry) AdapterFactory {
	return &adapterFactory{
		registry: reg,
		cache:    make(map[string]cacheEntry),
	}
}

// GetAdapter returns the cached adapter for cfg or constructs one
func (f *adapterFactory) GetAdapter(cfg types.ProviderConfig) (interfaces.Adapter, error) {
	key, err := Fingerprint(cfg)
	if err != nil {
		return nil, NewInitializationError(cfg, err)
	}

	f.cacheMu.RLock()
	entry, ok := f.cache[key]
	f.cacheMu.RUnlock()
	if ok {
		return entry.adapter, nil
	}

	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	// another caller may have built it meanwhile
	if entry, ok := f.cache[key]; ok {
		return entry.adapter, nil
	}

	adapter, err := f.registry.GetAdapter(cfg)
	if err != nil {
		return nil, NewInitializationError(cfg, err)
	}

	f.cache[key] = cacheEntry{adapter: adapter, configID: cfg.ID}
	return adapter, nil
}

// CreateChatService returns the chat side of the adapter for cfg
func (f *adapterFactory) CreateChatService(cfg types.ProviderConfig) (interfaces.ChatService, error) {
	return f.GetAdapter(cfg)
}

// CreateEmbeddingService returns the embedding side of the adapter for cfg
func (f *adapterFactory) CreateEmbeddingService(cfg types.ProviderConfig) (interfaces.EmbeddingService, error) {
	return f.GetAdapter(cfg)
}

// ClearCache clears the entire adapter cache
func (f *adapterFactory) ClearCache() {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	f.cache = make(map[string]cacheEntry)
}

// ClearCacheForConfig removes cache entries built for configID
func (f *adapterFactory) ClearCacheForConfig(configID string) {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	for key, entry := range f.cache {
		if entry.configID == configID {
			delete(f.cache, key)
		}
	}
}

// Len returns the number of cached adapters
func (f *adapterFactory) Len() int {
	f.cacheMu.RLock()
	defer f.cacheMu.RUnlock()

	return len(f.cache)
}

// Fingerprint identifies a configuration by content. Configs that differ
// only in unset versus default retry and timeout values share a fingerprint.
func Fingerprint(cfg types.ProviderConfig) (string, error) {
	data, err := json.Marshal(cfg.WithDefaults())
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// InitializationError represents an error during adapter construction
type InitializationError struct {
	Provider  types.ProviderType
	ConfigID  string
	Cause     error
	Timestamp time.Time
}

// Error implements the error interface
func (e *InitializationError) Error() string {
	if e.ConfigID != "" {
		return fmt.Sprintf("failed to initialize provider %s for config %s: %v", e.Provider, e.ConfigID, e.Cause)
	}
	return fmt.Sprintf("failed to initialize provider %s: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error
func (e *InitializationError) Unwrap() error {
	return e.Cause
}

// NewInitializationError creates a new initialization error
func NewInitializationError(cfg types.ProviderConfig, cause error) *InitializationError {
	return &InitializationError{
		Provider:  cfg.Provider,
		ConfigID:  cfg.ID,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
