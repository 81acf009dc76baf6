package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/asystent-radnego/common-go/pkg/health"
	"github.com/asystent-radnego/common-go/pkg/supabase"
	"github.com/asystent-radnego/common-go/pkg/types"
)

// Task type names
const (
	TypeTestConnection = "provider:test_connection"
	TypeTestAll        = "provider:test_all"
)

// TestConnectionPayload identifies the stored configuration to probe
type TestConnectionPayload struct {
	ConfigID string `json:"config_id"`
}

// TestAllPayload scopes a sweep to one user; empty means every active config
type TestAllPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// NewTestConnectionTask creates a task probing one stored configuration
func NewTestConnectionTask(configID string, opts ...asynq.Option) (*asynq.Task, error) {
	if configID == "" {
		return nil, fmt.Errorf("config id is required")
	}
	payload, err := json.Marshal(TestConnectionPayload{ConfigID: configID})
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.MaxRetry(3), asynq.Timeout(2 * time.Minute)}, opts...)
	return asynq.NewTask(TypeTestConnection, payload, opts...), nil
}

// NewTestAllTask creates a task probing every active configuration of userID
func NewTestAllTask(userID string, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(TestAllPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.MaxRetry(1), asynq.Timeout(10 * time.Minute)}, opts...)
	return asynq.NewTask(TypeTestAll, payload, opts...), nil
}

// statusUpdater is implemented by stores that keep the latest outcome on the
// configuration row
type statusUpdater interface {
	UpdateConnectionStatus(ctx context.Context, configID, status string, testedAt time.Time) error
}

// Handler runs connection tests for stored provider configurations
type Handler struct {
	store   types.ConfigStore
	checker *health.Checker
	logger  types.Logger
}

// NewHandler creates a task handler
func NewHandler(store types.ConfigStore, checker *health.Checker, logger types.Logger) *Handler {
	if logger == nil {
		logger = &types.NoOpLogger{}
	}
	return &Handler{
		store:   store,
		checker: checker,
		logger:  logger,
	}
}

// Register attaches the handler to mux
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeTestConnection, h.ProcessTestConnection)
	mux.HandleFunc(TypeTestAll, h.ProcessTestAll)
}

// ProcessTestConnection probes one configuration and stores the outcome.
// A failed probe is a successful task; only storage errors are retried.
func (h *Handler) ProcessTestConnection(ctx context.Context, t *asynq.Task) error {
	var p TestConnectionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.ConfigID == "" {
		return fmt.Errorf("config id is required: %w", asynq.SkipRetry)
	}

	cfg, err := h.store.GetProviderConfig(ctx, p.ConfigID)
	if err != nil {
		if errors.Is(err, supabase.ErrConfigNotFound) {
			h.logger.Warn("Skipping connection test for missing config", "config_id", p.ConfigID)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	report := h.checker.Check(ctx, *cfg)
	return h.save(ctx, report)
}

// ProcessTestAll probes every active configuration in scope
func (h *Handler) ProcessTestAll(ctx context.Context, t *asynq.Task) error {
	var p TestAllPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	configs, err := h.store.ListProviderConfigs(ctx, p.UserID)
	if err != nil {
		return err
	}

	var errs []error
	for _, report := range h.checker.CheckAll(ctx, configs) {
		if err := h.save(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}

	h.logger.Info("Provider sweep finished", "user_id", p.UserID, "configs", len(configs), "save_errors", len(errs))
	return errors.Join(errs...)
}

func (h *Handler) save(ctx context.Context, report health.Report) error {
	if report.ConfigID == "" {
		return nil
	}

	if err := h.store.SaveTestResult(ctx, report.Result.Record(report.ConfigID)); err != nil {
		return err
	}

	if u, ok := h.store.(statusUpdater); ok {
		if err := u.UpdateConnectionStatus(ctx, report.ConfigID, string(report.Result.Status), report.Result.TestedAt); err != nil {
			return err
		}
	}

	h.logger.Info("Connection test stored",
		"config_id", report.ConfigID,
		"provider", string(report.Provider),
		"status", string(report.Result.Status),
		"response_time_ms", report.Result.ResponseTimeMs,
	)
	return nil
}

// RegisterSweep schedules a periodic TypeTestAll task on cronspec
func RegisterSweep(s *asynq.Scheduler, cronspec, userID string) (string, error) {
	task, err := NewTestAllTask(userID)
	if err != nil {
		return "", err
	}
	return s.Register(cronspec, task)
}
