package base

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error codes carried by ProviderError
const (
	CodeHTTPError       = "HTTP_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeUnsupported     = "UNSUPPORTED"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeInvalidResponse = "INVALID_RESPONSE"
)

// ProviderError is the normalized failure every adapter method returns.
type ProviderError struct {
	// Message is a human readable description
	Message string `json:"message"`

	// Code is the machine readable category (HTTP_ERROR, TIMEOUT, ...)
	Code string `json:"code"`

	// Status is the HTTP status code (0 if not applicable)
	Status int `json:"status,omitempty"`

	// Raw is the provider's error payload: decoded JSON when the body
	// parsed, raw text otherwise
	Raw any `json:"provider_error,omitempty"`

	// Cause is the underlying error (if any)
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsAuthFailure reports whether retrying cannot help
func (e *ProviderError) IsAuthFailure() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Details flattens the error for storage in error_details columns
func (e *ProviderError) Details() map[string]any {
	details := map[string]any{"code": e.Code}
	if e.Status > 0 {
		details["status"] = e.Status
	}
	if e.Raw != nil {
		details["provider_error"] = e.Raw
	}
	return details
}

// NewUnsupportedError reports a capability the provider does not offer
func NewUnsupportedError(provider, capability string) *ProviderError {
	return &ProviderError{
		Message: fmt.Sprintf("%s does not support %s", provider, capability),
		Code:    CodeUnsupported,
	}
}

// NewInvalidResponseError reports a 2xx body missing required fields
func NewInvalidResponseError(message string, raw any) *ProviderError {
	return &ProviderError{
		Message: message,
		Code:    CodeInvalidResponse,
		Raw:     raw,
	}
}

// AsProviderError extracts a *ProviderError from an error chain
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// HandleError normalizes any error into a *ProviderError. Existing
// ProviderErrors pass through unchanged; deadlines map to TIMEOUT and
// everything else to UNKNOWN_ERROR.
func HandleError(err error) *ProviderError {
	if err == nil {
		return nil
	}

	if perr, ok := AsProviderError(err); ok {
		return perr
	}

	if isTimeout(err) {
		return &ProviderError{
			Message: "Request timeout",
			Code:    CodeTimeout,
			Cause:   err,
		}
	}

	return &ProviderError{
		Message: err.Error(),
		Code:    CodeUnknown,
		Raw:     err.Error(),
		Cause:   err,
	}
}

// HandleValue normalizes a recovered panic value
func HandleValue(v any) *ProviderError {
	if err, ok := v.(error); ok {
		return HandleError(err)
	}
	return &ProviderError{
		Message: fmt.Sprint(v),
		Code:    CodeUnknown,
		Raw:     fmt.Sprint(v),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// newHTTPError builds the HTTP_ERROR for a non-2xx response. The message is
// taken from the JSON body when it carries one.
func newHTTPError(status int, body []byte) *ProviderError {
	perr := &ProviderError{
		Message: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
		Code:    CodeHTTPError,
		Status:  status,
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		perr.Raw = parsed
		if msg := errorMessage(parsed); msg != "" {
			perr.Message = msg
		}
		return perr
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		perr.Raw = text
	}
	return perr
}

// errorMessage understands {"error":{"message":..}}, {"error":".."} and
// {"message":".."}
func errorMessage(parsed any) string {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return ""
	}
	switch e := obj["error"].(type) {
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	case string:
		if e != "" {
			return e
		}
	}
	if msg, ok := obj["message"].(string); ok {
		return msg
	}
	return ""
}
