package registry

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/asystent-radnego/common-go/pkg/interfaces"
	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/providers/llm"
	"github.com/asystent-radnego/common-go/pkg/types"
)

type headerBuilder interface {
	BuildHeaders() http.Header
}

// stubAdapter satisfies interfaces.Adapter without network access
type stubAdapter struct {
	cfg types.ProviderConfig
}

func (s *stubAdapter) Provider() types.ProviderType { return s.cfg.Provider }
func (s *stubAdapter) Chat(context.Context, []types.ChatMessage, *models.ChatOptions) (*models.ChatResponse, error) {
	return &models.ChatResponse{Content: "stub"}, nil
}
func (s *stubAdapter) Embeddings(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (s *stubAdapter) ListModels(context.Context) ([]models.ModelInfo, error) {
	return nil, nil
}
func (s *stubAdapter) TestConnection(context.Context) models.TestResult {
	return models.TestResult{Status: models.TestStatusSuccess}
}

func stubConstructor(cfg types.ProviderConfig, _ ...base.Option) (interfaces.Adapter, error) {
	return &stubAdapter{cfg: cfg}, nil
}

func TestDefaultRegistry_Dispatch(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name     string
		cfg      types.ProviderConfig
		assertFn func(t *testing.T, a interfaces.Adapter)
	}{
		{
			name: "openai",
			cfg:  types.ProviderConfig{Provider: types.ProviderOpenAI, APIKey: "sk", BaseURL: "https://api.openai.com/v1"},
			assertFn: func(t *testing.T, a interfaces.Adapter) {
				if _, ok := a.(*llm.OpenAIAdapter); !ok {
					t.Errorf("expected OpenAIAdapter, got %T", a)
				}
			},
		},
		{
			name: "other falls back to openai",
			cfg:  types.ProviderConfig{Provider: types.ProviderOther, APIKey: "sk", BaseURL: "https://openrouter.ai/api/v1"},
			assertFn: func(t *testing.T, a interfaces.Adapter) {
				if _, ok := a.(*llm.OpenAIAdapter); !ok {
					t.Errorf("expected OpenAIAdapter, got %T", a)
				}
				if a.Provider() != types.ProviderOther {
					t.Errorf("expected provider other, got %s", a.Provider())
				}
			},
		},
		{
			name: "anthropic",
			cfg:  types.ProviderConfig{Provider: types.ProviderAnthropic, APIKey: "sk", BaseURL: "https://api.anthropic.com/v1"},
			assertFn: func(t *testing.T, a interfaces.Adapter) {
				if _, ok := a.(*llm.AnthropicAdapter); !ok {
					t.Errorf("expected AnthropicAdapter, got %T", a)
				}
			},
		},
		{
			name: "google",
			cfg:  types.ProviderConfig{Provider: types.ProviderGoogle, APIKey: "g", BaseURL: "https://generativelanguage.googleapis.com/v1beta"},
			assertFn: func(t *testing.T, a interfaces.Adapter) {
				if _, ok := a.(*llm.GoogleAdapter); !ok {
					t.Errorf("expected GoogleAdapter, got %T", a)
				}
			},
		},
		{
			name: "local without auth",
			cfg:  types.ProviderConfig{Provider: types.ProviderLocal, APIKey: "none", BaseURL: "http://localhost:11434"},
			assertFn: func(t *testing.T, a interfaces.Adapter) {
				hb, ok := a.(headerBuilder)
				if !ok {
					t.Fatalf("expected adapter to expose BuildHeaders, got %T", a)
				}
				if got := hb.BuildHeaders().Get("Authorization"); got != "" {
					t.Errorf("expected no Authorization header, got %q", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.GetAdapter(tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.assertFn(t, a)
		})
	}
}

func TestGetAdapter_Errors(t *testing.T) {
	r := NewDefaultRegistry()

	t.Run("unregistered provider", func(t *testing.T) {
		_, err := r.GetAdapter(types.ProviderConfig{Provider: "cohere", APIKey: "k", BaseURL: "https://x.test"})
		if !errors.Is(err, ErrUnsupportedProvider) {
			t.Errorf("expected ErrUnsupportedProvider, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := r.GetAdapter(types.ProviderConfig{Provider: types.ProviderOpenAI, BaseURL: "https://x.test"})
		perr, ok := base.AsProviderError(err)
		if !ok || perr.Code != base.CodeInvalidConfig {
			t.Errorf("expected INVALID_CONFIG, got %v", err)
		}
	})

	t.Run("invalid base url", func(t *testing.T) {
		_, err := r.GetAdapter(types.ProviderConfig{Provider: types.ProviderOpenAI, APIKey: "k", BaseURL: "not a url"})
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestRegisterAdapter(t *testing.T) {
	r := NewProviderRegistry()

	if r.IsSupported(types.ProviderOpenAI) {
		t.Error("expected empty registry")
	}
	if err := r.RegisterAdapter("", stubConstructor); err == nil {
		t.Error("expected error for empty id")
	}
	if err := r.RegisterAdapter("custom", nil); err == nil {
		t.Error("expected error for nil constructor")
	}

	if err := r.RegisterAdapter("custom", Wrap(llm.NewOpenAIAdapter)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// last write wins
	if err := r.RegisterAdapter("custom", stubConstructor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := r.GetAdapter(types.ProviderConfig{Provider: "custom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.(*stubAdapter); !ok {
		t.Errorf("expected stub adapter, got %T", a)
	}

	if !r.UnregisterAdapter("custom") || r.IsSupported("custom") {
		t.Error("expected custom to be removed")
	}
	if r.UnregisterAdapter("custom") {
		t.Error("expected second unregister to report false")
	}
}

func TestSupportedProviders(t *testing.T) {
	r := NewDefaultRegistry()

	got := r.SupportedProviders()
	want := []types.ProviderType{
		types.ProviderAnthropic,
		types.ProviderGoogle,
		types.ProviderLocal,
		types.ProviderOpenAI,
		types.ProviderOther,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewDefaultRegistry()
	cfg := types.ProviderConfig{Provider: types.ProviderLocal, BaseURL: "http://localhost:11434"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := r.GetAdapter(cfg); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = r.RegisterAdapter("custom", stubConstructor)
		}()
	}
	wg.Wait()
}

func TestWrap_NilOnError(t *testing.T) {
	ctor := Wrap(llm.NewOpenAIAdapter)

	a, err := ctor(types.ProviderConfig{BaseURL: "https://x.test"})
	if err == nil {
		t.Fatal("expected error")
	}
	if a != nil {
		t.Errorf("expected nil interface, got %#v", a)
	}
}
