package health

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/asystent-radnego/common-go/pkg/interfaces"
	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/types"
)

// DefaultParallelism bounds concurrent probes in CheckAll
const DefaultParallelism = 4

// Reporter receives the health of each probed configuration, keyed by
// HealthKey
type Reporter interface {
	UpdateHealth(key string, healthy bool)
}

// Report is the outcome of probing one provider configuration
type Report struct {
	ConfigID string             `json:"config_id,omitempty"`
	Name     string             `json:"name,omitempty"`
	Provider types.ProviderType `json:"provider"`
	Result   models.TestResult  `json:"result"`
}

// Healthy reports whether the probe passed
func (r Report) Healthy() bool {
	return r.Result.Succeeded()
}

// Checker runs connection tests against provider configurations
type Checker struct {
	source      interfaces.AdapterSource
	logger      types.Logger
	reporter    Reporter
	parallelism int
	now         func() time.Time
}

// Option configures a Checker
type Option func(*Checker)

// WithLogger sets the logger
func WithLogger(logger types.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReporter forwards every outcome to r, usually *metrics.ProviderMetrics
func WithReporter(r Reporter) Option {
	return func(c *Checker) {
		c.reporter = r
	}
}

// WithParallelism sets how many probes CheckAll runs at once
func WithParallelism(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// NewChecker creates a checker resolving adapters through source
func NewChecker(source interfaces.AdapterSource, opts ...Option) *Checker {
	c := &Checker{
		source:      source,
		logger:      &types.NoOpLogger{},
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check probes a single configuration. Adapter construction failures are
// reported as a failed result rather than an error.
func (c *Checker) Check(ctx context.Context, cfg types.ProviderConfig) Report {
	report := Report{
		ConfigID: cfg.ID,
		Name:     cfg.Name,
		Provider: cfg.Provider,
	}

	adapter, err := c.source.GetAdapter(cfg)
	if err != nil {
		c.logger.Warn("Failed to build adapter for connection test",
			"config_id", cfg.ID,
			"provider", string(cfg.Provider),
			"error", err,
		)
		report.Result = c.constructionFailure(err)
	} else {
		report.Result = adapter.TestConnection(ctx)
	}

	if c.reporter != nil {
		c.reporter.UpdateHealth(HealthKey(cfg), report.Healthy())
	}
	return report
}

// HealthKey identifies a configuration in health reports: its id, else its
// name, else the provider type
func HealthKey(cfg types.ProviderConfig) string {
	switch {
	case cfg.ID != "":
		return cfg.ID
	case cfg.Name != "":
		return cfg.Name
	default:
		return string(cfg.Provider)
	}
}

// CheckAll probes every configuration with bounded concurrency.
// Reports keep the order of configs.
func (c *Checker) CheckAll(ctx context.Context, configs []types.ProviderConfig) []Report {
	reports := make([]Report, len(configs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for i, cfg := range configs {
		g.Go(func() error {
			reports[i] = c.Check(gCtx, cfg)
			return nil
		})
	}

	_ = g.Wait()
	return reports
}

func (c *Checker) constructionFailure(err error) models.TestResult {
	perr := base.HandleError(err)

	msg := err.Error()
	if msg == "" {
		msg = perr.Code
	}

	return models.TestResult{
		ID:           uuid.NewString(),
		TestType:     models.TestTypeConnection,
		Status:       models.TestStatusFailed,
		ErrorMessage: msg,
		ErrorDetails: perr.Details(),
		TestedAt:     c.now().UTC(),
	}
}
