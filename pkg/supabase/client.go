package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asystent-radnego/common-go/pkg/types"
)

const (
	configsTable     = "api_configurations"
	testHistoryTable = "api_test_history"
)

// ErrConfigNotFound is returned when no active configuration matches an id
var ErrConfigNotFound = errors.New("provider configuration not found")

// Client implements types.ConfigStore over the Supabase REST API
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	cache      *configCache
	cacheTTL   time.Duration
	logger     types.Logger
}

// ClientConfig holds configuration for the Supabase client
type ClientConfig struct {
	URL      string
	APIKey   string
	CacheTTL time.Duration // Default: 5 minutes
	Timeout  time.Duration // HTTP client timeout
	Logger   types.Logger
}

// configCache provides thread-safe caching for provider configurations
type configCache struct {
	mu   sync.RWMutex
	byID map[string]*cacheEntry
}

type cacheEntry struct {
	config    *types.ProviderConfig
	expiresAt time.Time
}

// NewClient creates a new Supabase client
func NewClient(config ClientConfig) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	// Set defaults
	if config.CacheTTL == 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = &types.NoOpLogger{}
	}

	return &Client{
		url:    strings.TrimSuffix(config.URL, "/"),
		apiKey: config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: &configCache{
			byID: make(map[string]*cacheEntry),
		},
		cacheTTL: config.CacheTTL,
		logger:   logger,
	}, nil
}

// GetProviderConfig retrieves an active provider configuration by ID
func (c *Client) GetProviderConfig(ctx context.Context, id string) (*types.ProviderConfig, error) {
	// Check cache first
	if cfg := c.getFromCache(id); cfg != nil {
		return cfg, nil
	}

	query := url.Values{}
	query.Set("id", "eq."+id)
	query.Set("select", "*")

	var rows []configRow
	if err := c.do(ctx, http.MethodGet, configsTable, query, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to query provider config %s: %w", id, err)
	}

	if len(rows) == 0 || !rows[0].active() {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}

	cfg := rows[0].ProviderConfig
	c.addToCache(&cfg)

	return &cfg, nil
}

// ListProviderConfigs returns active configurations, optionally for one user
func (c *Client) ListProviderConfigs(ctx context.Context, userID string) ([]types.ProviderConfig, error) {
	query := url.Values{}
	query.Set("is_active", "eq.true")
	query.Set("select", "*")
	query.Set("order", "created_at.asc")
	if userID != "" {
		query.Set("user_id", "eq."+userID)
	}

	var rows []configRow
	if err := c.do(ctx, http.MethodGet, configsTable, query, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list provider configs: %w", err)
	}

	configs := make([]types.ProviderConfig, 0, len(rows))
	for i := range rows {
		configs = append(configs, rows[i].ProviderConfig)
		c.addToCache(&rows[i].ProviderConfig)
	}

	return configs, nil
}

// SaveTestResult appends a connection test outcome to the history table
func (c *Client) SaveTestResult(ctx context.Context, record types.TestRecord) error {
	if record.ConfigID == "" {
		return fmt.Errorf("config id is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.TestedAt.IsZero() {
		record.TestedAt = time.Now().UTC()
	}

	if err := c.do(ctx, http.MethodPost, testHistoryTable, nil, record, nil); err != nil {
		return fmt.Errorf("failed to save test result for %s: %w", record.ConfigID, err)
	}

	c.logger.Debug("Saved connection test result", "config_id", record.ConfigID, "status", record.Status)
	return nil
}

// UpdateConnectionStatus stores the latest test outcome on the configuration row
func (c *Client) UpdateConnectionStatus(ctx context.Context, configID, status string, testedAt time.Time) error {
	query := url.Values{}
	query.Set("id", "eq."+configID)

	body := map[string]any{
		"connection_status": status,
		"last_test_at":      testedAt.UTC(),
	}

	if err := c.do(ctx, http.MethodPatch, configsTable, query, body, nil); err != nil {
		return fmt.Errorf("failed to update connection status for %s: %w", configID, err)
	}
	return nil
}

// do executes a PostgREST request against table and decodes the JSON reply into out
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.url, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	c.logger.Debug("Querying Supabase", "method", method, "table", table)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query supabase: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Error("Supabase request failed", "status", resp.StatusCode, "table", table, "body", string(data))
		return fmt.Errorf("supabase request failed: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getFromCache retrieves a configuration from cache by ID
func (c *Client) getFromCache(id string) *types.ProviderConfig {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	entry := c.cache.byID[id]
	if entry == nil {
		return nil
	}

	// Check if expired
	if time.Now().After(entry.expiresAt) {
		return nil
	}

	cfg := cloneConfig(*entry.config)
	return &cfg
}

// addToCache adds a configuration to cache by ID
func (c *Client) addToCache(cfg *types.ProviderConfig) {
	if cfg.ID == "" {
		return
	}

	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	stored := cloneConfig(*cfg)
	c.cache.byID[cfg.ID] = &cacheEntry{
		config:    &stored,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

// Invalidate removes one configuration from the cache
func (c *Client) Invalidate(id string) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	delete(c.cache.byID, id)
}

// ClearCache clears all cached provider configurations
func (c *Client) ClearCache() {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byID = make(map[string]*cacheEntry)
}

// cloneConfig copies cfg including its header map
func cloneConfig(cfg types.ProviderConfig) types.ProviderConfig {
	if cfg.CustomHeaders != nil {
		headers := make(map[string]string, len(cfg.CustomHeaders))
		for k, v := range cfg.CustomHeaders {
			headers[k] = v
		}
		cfg.CustomHeaders = headers
	}
	return cfg
}

// configRow represents a raw api_configurations row
type configRow struct {
	types.ProviderConfig
	IsActive *bool `json:"is_active"` // Pointer to handle null
}

func (r configRow) active() bool {
	return r.IsActive == nil || *r.IsActive
}
