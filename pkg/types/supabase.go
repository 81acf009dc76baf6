package types

import (
	"context"
	"time"
)

// ConfigStore provides access to persisted provider configurations and
// connection test history
type ConfigStore interface {
	// GetProviderConfig retrieves a provider configuration by ID
	GetProviderConfig(ctx context.Context, id string) (*ProviderConfig, error)

	// ListProviderConfigs returns the active configurations of a user, or all
	// active configurations when userID is empty
	ListProviderConfigs(ctx context.Context, userID string) ([]ProviderConfig, error)

	// SaveTestResult appends a connection test outcome to the history table
	SaveTestResult(ctx context.Context, record TestRecord) error
}

// TestRecord is a row of the api_test_history table
type TestRecord struct {
	ID             string         `json:"id"`
	ConfigID       string         `json:"config_id"`
	TestType       string         `json:"test_type"`
	Status         string         `json:"status"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	ErrorMessage   *string        `json:"error_message"`
	ErrorDetails   map[string]any `json:"error_details"`
	TestedAt       time.Time      `json:"tested_at"`
}
