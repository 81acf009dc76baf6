package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/asystent-radnego/common-go/pkg/health"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/providers/registry"
	"github.com/asystent-radnego/common-go/pkg/supabase"
	"github.com/asystent-radnego/common-go/pkg/types"
)

type memoryStore struct {
	mu       sync.Mutex
	configs  map[string]types.ProviderConfig
	records  []types.TestRecord
	statuses map[string]string
	saveErr  error
}

func newMemoryStore(configs ...types.ProviderConfig) *memoryStore {
	s := &memoryStore{
		configs:  make(map[string]types.ProviderConfig),
		statuses: make(map[string]string),
	}
	for _, cfg := range configs {
		s.configs[cfg.ID] = cfg
	}
	return s
}

func (s *memoryStore) GetProviderConfig(_ context.Context, id string) (*types.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", supabase.ErrConfigNotFound, id)
	}
	return &cfg, nil
}

func (s *memoryStore) ListProviderConfigs(_ context.Context, userID string) ([]types.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ProviderConfig
	for _, cfg := range s.configs {
		if userID == "" || cfg.UserID == userID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *memoryStore) SaveTestResult(_ context.Context, record types.TestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memoryStore) UpdateConnectionStatus(_ context.Context, configID, status string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[configID] = status
	return nil
}

func newHandler(t *testing.T, store *memoryStore) *Handler {
	t.Helper()
	noSleep := func(context.Context, time.Duration) error { return nil }
	checker := health.NewChecker(registry.NewDefaultRegistry(base.WithSleep(noSleep)))
	return NewHandler(store, checker, nil)
}

func modelsServer(t *testing.T, status int) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestNewTestConnectionTask(t *testing.T) {
	task, err := NewTestConnectionTask("cfg-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TypeTestConnection {
		t.Errorf("unexpected type %s", task.Type())
	}

	var p TestConnectionPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil || p.ConfigID != "cfg-1" {
		t.Errorf("unexpected payload %s", task.Payload())
	}

	if _, err := NewTestConnectionTask(""); err == nil {
		t.Error("expected error for empty config id")
	}
}

func TestProcessTestConnection(t *testing.T) {
	store := newMemoryStore(
		types.ProviderConfig{ID: "up", Provider: types.ProviderLocal, BaseURL: modelsServer(t, http.StatusOK)},
		types.ProviderConfig{ID: "down", Provider: types.ProviderLocal, BaseURL: modelsServer(t, http.StatusServiceUnavailable)},
	)
	h := newHandler(t, store)

	for _, id := range []string{"up", "down"} {
		task, _ := NewTestConnectionTask(id)
		if err := h.ProcessTestConnection(context.Background(), task); err != nil {
			t.Fatalf("unexpected error for %s: %v", id, err)
		}
	}

	if len(store.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(store.records))
	}
	if store.statuses["up"] != "success" || store.statuses["down"] != "failed" {
		t.Errorf("unexpected statuses: %v", store.statuses)
	}
	for _, rec := range store.records {
		if rec.ConfigID == "down" && (rec.ErrorMessage == nil || *rec.ErrorMessage == "") {
			t.Error("expected an error message for the failed probe")
		}
	}
}

func TestProcessTestConnection_SkipRetry(t *testing.T) {
	h := newHandler(t, newMemoryStore())

	tests := []struct {
		name    string
		payload []byte
	}{
		{"malformed", []byte("{")},
		{"empty id", []byte(`{}`)},
		{"missing config", []byte(`{"config_id":"gone"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.ProcessTestConnection(context.Background(), asynq.NewTask(TypeTestConnection, tt.payload))
			if !errors.Is(err, asynq.SkipRetry) {
				t.Errorf("expected SkipRetry, got %v", err)
			}
		})
	}
}

func TestProcessTestAll(t *testing.T) {
	url := modelsServer(t, http.StatusOK)
	store := newMemoryStore(
		types.ProviderConfig{ID: "a", UserID: "u-1", Provider: types.ProviderLocal, BaseURL: url},
		types.ProviderConfig{ID: "b", UserID: "u-1", Provider: types.ProviderLocal, BaseURL: url},
		types.ProviderConfig{ID: "c", UserID: "u-2", Provider: types.ProviderLocal, BaseURL: url},
	)
	h := newHandler(t, store)

	task, _ := NewTestAllTask("u-1")
	if err := h.ProcessTestAll(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.records) != 2 {
		t.Errorf("expected 2 records for u-1, got %d", len(store.records))
	}

	store.saveErr = errors.New("db down")
	if err := h.ProcessTestAll(context.Background(), asynq.NewTask(TypeTestAll, nil)); err == nil {
		t.Error("expected storage errors to surface")
	}
}
