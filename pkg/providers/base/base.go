package base

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asystent-radnego/common-go/pkg/types"
)

// Recorder receives request telemetry from the retry loop.
// *metrics.ProviderMetrics implements it.
type Recorder interface {
	ObserveRequest(provider, outcome string, elapsed time.Duration)
	IncRetry(provider string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRequest(string, string, time.Duration) {}
func (noopRecorder) IncRetry(string)                              {}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Adapter carries the state and behaviour shared by every provider adapter:
// header construction, URL building and the retrying HTTP primitive.
// It is read-only after New and safe for concurrent use.
type Adapter struct {
	config      types.ProviderConfig
	client      *http.Client
	logger      types.Logger
	recorder    Recorder
	sleep       SleepFunc
	now         func() time.Time
	allowNoAuth bool
}

// Option configures an Adapter
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for every attempt
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		if client != nil {
			a.client = client
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger types.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder sets the telemetry recorder
func WithRecorder(recorder Recorder) Option {
	return func(a *Adapter) {
		if recorder != nil {
			a.recorder = recorder
		}
	}
}

// WithSleep replaces the backoff sleep, mainly for tests
func WithSleep(sleep SleepFunc) Option {
	return func(a *Adapter) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// WithClock replaces the clock used for connection test timing
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// AllowNoAuth lets an empty or "none" API key through validation and
// suppresses the auth header for it
func AllowNoAuth() Option {
	return func(a *Adapter) {
		a.allowNoAuth = true
	}
}

// New validates cfg and returns the shared adapter core
func New(cfg types.ProviderConfig, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		config:   cfg.WithDefaults(),
		client:   &http.Client{},
		logger:   types.NoOpLogger{},
		recorder: noopRecorder{},
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Adapter) validate() error {
	if !a.allowNoAuth && !hasKey(a.config.APIKey) {
		return &ProviderError{
			Message: fmt.Sprintf("api key is required for provider %q", a.config.Provider),
			Code:    CodeInvalidConfig,
		}
	}

	switch a.config.AuthMethod {
	case types.AuthBearer, types.AuthAPIKey, types.AuthCustom:
	default:
		return &ProviderError{
			Message: fmt.Sprintf("unknown auth method %q", a.config.AuthMethod),
			Code:    CodeInvalidConfig,
		}
	}

	u, err := url.Parse(a.config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ProviderError{
			Message: fmt.Sprintf("invalid base url %q", a.config.BaseURL),
			Code:    CodeInvalidConfig,
			Cause:   err,
		}
	}
	return nil
}

func hasKey(key string) bool {
	return key != "" && key != types.NoAPIKey
}

// Config returns the effective configuration with defaults applied
func (a *Adapter) Config() types.ProviderConfig {
	return a.config
}

// Provider returns the configured provider type
func (a *Adapter) Provider() types.ProviderType {
	return a.config.Provider
}

// Logger returns the adapter's logger
func (a *Adapter) Logger() types.Logger {
	return a.logger
}

// HasAPIKey reports whether a usable credential is configured
func (a *Adapter) HasAPIKey() bool {
	return hasKey(a.config.APIKey)
}

// BuildHeaders returns Content-Type, the auth header selected by the auth
// method, and the configured custom headers, which win on collision.
func (a *Adapter) BuildHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")

	if a.HasAPIKey() {
		switch a.config.AuthMethod {
		case types.AuthBearer:
			h.Set("Authorization", "Bearer "+a.config.APIKey)
		case types.AuthAPIKey:
			h.Set("x-api-key", a.config.APIKey)
		}
	}

	return a.MergeCustomHeaders(h)
}

// MergeCustomHeaders applies the configured custom headers on top of h.
// Adapters with bespoke headers call it last.
func (a *Adapter) MergeCustomHeaders(h http.Header) http.Header {
	for k, v := range a.config.CustomHeaders {
		h.Set(k, v)
	}
	return h
}

// BuildURL joins endpoint to the base URL with exactly one slash
func (a *Adapter) BuildURL(endpoint string) string {
	base := strings.TrimRight(a.config.BaseURL, "/")
	if endpoint == "" {
		return base
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return base + endpoint
}

// Endpoint returns override when set, fallback otherwise
func Endpoint(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
