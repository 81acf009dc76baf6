package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBackoffExponent caps the doubling so large MaxRetries values cannot
// overflow the shift
const maxBackoffExponent = 10

// Backoff returns the wait before retrying after the given zero-based attempt,
// 2^attempt seconds capped at 2^10 seconds
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffExponent {
		attempt = maxBackoffExponent
	}
	return time.Duration(1<<attempt) * time.Second
}

// MakeRequest sends body as JSON and decodes a 2xx response into out.
//
// Up to MaxRetries attempts are made, each bounded by TimeoutSeconds.
// 401 and 403 responses are returned at once; any other failure is retried
// after Backoff(attempt). The error is always a *ProviderError and is the
// last one observed.
func (a *Adapter) MakeRequest(ctx context.Context, method, url string, headers http.Header, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return HandleError(fmt.Errorf("failed to encode request: %w", err))
		}
	}

	provider := string(a.config.Provider)
	attempts := a.config.MaxRetries

	var lastErr *ProviderError
	for attempt := 0; attempt < attempts; attempt++ {
		start := time.Now()
		err := a.do(ctx, method, url, headers, payload, out)
		elapsed := time.Since(start)

		if err == nil {
			a.recorder.ObserveRequest(provider, "success", elapsed)
			return nil
		}

		lastErr = HandleError(err)
		a.recorder.ObserveRequest(provider, strings.ToLower(lastErr.Code), elapsed)
		a.logger.Warn("provider request failed",
			"provider", provider,
			"url", url,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"code", lastErr.Code,
			"status", lastErr.Status,
			"error", lastErr.Message,
		)

		if lastErr.IsAuthFailure() || ctx.Err() != nil {
			return lastErr
		}

		if attempt < attempts-1 {
			a.recorder.IncRetry(provider)
			if err := a.sleep(ctx, Backoff(attempt)); err != nil {
				return lastErr
			}
		}
	}

	if lastErr == nil {
		return &ProviderError{
			Message: "Request failed after retries",
			Code:    CodeUnknown,
		}
	}
	return lastErr
}

// do performs one attempt under its own timeout
func (a *Adapter) do(ctx context.Context, method, url string, headers http.Header, payload []byte, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, a.config.Timeout())
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if headers != nil {
		req.Header = headers.Clone()
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ProviderError{
			Message: fmt.Sprintf("failed to decode response: %v", err),
			Code:    CodeUnknown,
			Raw:     string(data),
			Cause:   err,
		}
	}
	return nil
}
