package models

import (
	"time"

	"github.com/asystent-radnego/common-go/pkg/types"
)

// ModelInfo represents a model advertised by a provider
type ModelInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Created *int64 `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// TestStatus is the outcome of a connection test
type TestStatus string

const (
	TestStatusSuccess TestStatus = "success"
	TestStatusFailed  TestStatus = "failed"

	TestTypeConnection = "connection"
)

// TestResult is produced by an adapter connection probe
type TestResult struct {
	ID             string         `json:"id"`
	TestType       string         `json:"test_type"`
	Status         TestStatus     `json:"status"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ErrorDetails   map[string]any `json:"error_details,omitempty"`
	TestedAt       time.Time      `json:"tested_at"`
}

// Succeeded reports whether the probe passed
func (r TestResult) Succeeded() bool {
	return r.Status == TestStatusSuccess
}

// Record converts the result into an api_test_history row
func (r TestResult) Record(configID string) types.TestRecord {
	record := types.TestRecord{
		ID:             r.ID,
		ConfigID:       configID,
		TestType:       r.TestType,
		Status:         string(r.Status),
		ResponseTimeMs: r.ResponseTimeMs,
		ErrorDetails:   r.ErrorDetails,
		TestedAt:       r.TestedAt,
	}
	if r.ErrorMessage != "" {
		msg := r.ErrorMessage
		record.ErrorMessage = &msg
	}
	return record
}
