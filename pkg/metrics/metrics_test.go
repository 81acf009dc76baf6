package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/asystent-radnego/common-go/pkg/providers/base"
)

var _ base.Recorder = (*ProviderMetrics)(nil)

func TestProviderMetrics_ObserveRequest(t *testing.T) {
	m := NewProviderMetrics("test", prometheus.NewRegistry())

	tests := []struct {
		name     string
		provider string
		outcome  string
		times    int
	}{
		{"success", "openai", OutcomeSuccess, 2},
		{"http error", "openai", "http_error", 1},
		{"timeout", "local", "timeout", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.times; i++ {
				m.ObserveRequest(tt.provider, tt.outcome, 150*time.Millisecond)
			}

			count := testutil.ToFloat64(m.requests.WithLabelValues(tt.provider, tt.outcome))
			if count != float64(tt.times) {
				t.Errorf("expected %d requests, got %f", tt.times, count)
			}
		})
	}

	if n := testutil.CollectAndCount(m.latency); n != 2 {
		t.Errorf("expected latency series for 2 providers, got %d", n)
	}
}

func TestProviderMetrics_Retries(t *testing.T) {
	m := NewProviderMetrics("test", prometheus.NewRegistry())

	m.IncRetry("anthropic")
	m.IncRetry("anthropic")

	if count := testutil.ToFloat64(m.retries.WithLabelValues("anthropic")); count != 2 {
		t.Errorf("expected 2 retries, got %f", count)
	}
}

func TestProviderMetrics_UpdateHealth(t *testing.T) {
	m := NewProviderMetrics("test", prometheus.NewRegistry())

	m.UpdateHealth("cfg-gemini", true)
	if health := testutil.ToFloat64(m.health.WithLabelValues("cfg-gemini")); health != 1.0 {
		t.Errorf("expected health 1.0, got %f", health)
	}

	m.UpdateHealth("cfg-gemini", false)
	if health := testutil.ToFloat64(m.health.WithLabelValues("cfg-gemini")); health != 0.0 {
		t.Errorf("expected health 0.0, got %f", health)
	}
}

func TestProviderMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewProviderMetrics("test", reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewProviderMetrics("test", reg)
}
