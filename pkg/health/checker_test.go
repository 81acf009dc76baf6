package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/providers/registry"
	"github.com/asystent-radnego/common-go/pkg/types"
)

type healthRecorder struct {
	mu     sync.Mutex
	health map[string]bool
}

func (h *healthRecorder) UpdateHealth(provider string, healthy bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.health == nil {
		h.health = make(map[string]bool)
	}
	h.health[provider] = healthy
}

func noSleep(context.Context, time.Duration) error { return nil }

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestChecker_CheckAll(t *testing.T) {
	healthy := newServer(t, http.StatusOK, `{"data":[{"id":"gpt-4o"}]}`)
	broken := newServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)

	configs := []types.ProviderConfig{
		{ID: "ok", Provider: types.ProviderOpenAI, APIKey: "sk", BaseURL: healthy.URL},
		{ID: "denied", Provider: types.ProviderOther, APIKey: "sk", BaseURL: broken.URL},
		{ID: "unknown", Provider: "mystery", APIKey: "sk", BaseURL: healthy.URL},
		{ID: "invalid", Provider: types.ProviderAnthropic, BaseURL: healthy.URL},
	}

	rec := &healthRecorder{}
	checker := NewChecker(
		registry.NewDefaultRegistry(base.WithSleep(noSleep)),
		WithReporter(rec),
		WithParallelism(2),
	)

	reports := checker.CheckAll(context.Background(), configs)
	if len(reports) != len(configs) {
		t.Fatalf("expected %d reports, got %d", len(configs), len(reports))
	}

	tests := []struct {
		configID string
		status   models.TestStatus
		code     string
	}{
		{"ok", models.TestStatusSuccess, ""},
		{"denied", models.TestStatusFailed, base.CodeHTTPError},
		{"unknown", models.TestStatusFailed, base.CodeUnknown},
		{"invalid", models.TestStatusFailed, base.CodeInvalidConfig},
	}

	for i, tt := range tests {
		t.Run(tt.configID, func(t *testing.T) {
			report := reports[i]
			if report.ConfigID != tt.configID {
				t.Fatalf("expected report order to follow configs, got %q", report.ConfigID)
			}
			if report.Result.Status != tt.status {
				t.Errorf("expected status %s, got %s (%s)", tt.status, report.Result.Status, report.Result.ErrorMessage)
			}
			if tt.code == "" {
				return
			}
			if report.Result.ErrorDetails["code"] != tt.code {
				t.Errorf("expected code %s, got %v", tt.code, report.Result.ErrorDetails["code"])
			}
			if report.Result.ErrorMessage == "" || report.Result.ID == "" {
				t.Errorf("expected message and id, got %+v", report.Result)
			}
		})
	}

	if !rec.health["ok"] || rec.health["denied"] || len(rec.health) != len(configs) {
		t.Errorf("unexpected health: %v", rec.health)
	}
}

func TestChecker_HealthPerConfig(t *testing.T) {
	healthy := newServer(t, http.StatusOK, `{"data":[{"id":"gpt-4o"}]}`)
	broken := newServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)

	// two configs of the same provider type must not overwrite each other
	configs := []types.ProviderConfig{
		{ID: "team-a", Provider: types.ProviderOpenAI, APIKey: "sk", BaseURL: healthy.URL},
		{ID: "team-b", Provider: types.ProviderOpenAI, APIKey: "sk", BaseURL: broken.URL},
	}

	rec := &healthRecorder{}
	checker := NewChecker(registry.NewDefaultRegistry(base.WithSleep(noSleep)), WithReporter(rec))
	checker.CheckAll(context.Background(), configs)

	if !rec.health["team-a"] || rec.health["team-b"] {
		t.Errorf("unexpected health: %v", rec.health)
	}
	if _, ok := rec.health["openai"]; ok {
		t.Error("expected health keyed by config, not provider type")
	}
}

func TestHealthKey(t *testing.T) {
	tests := []struct {
		cfg  types.ProviderConfig
		want string
	}{
		{types.ProviderConfig{ID: "id", Name: "name", Provider: types.ProviderLocal}, "id"},
		{types.ProviderConfig{Name: "name", Provider: types.ProviderLocal}, "name"},
		{types.ProviderConfig{Provider: types.ProviderLocal}, "local"},
	}
	for _, tt := range tests {
		if got := HealthKey(tt.cfg); got != tt.want {
			t.Errorf("HealthKey(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestChecker_Empty(t *testing.T) {
	checker := NewChecker(registry.NewDefaultRegistry())
	if reports := checker.CheckAll(context.Background(), nil); len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}
