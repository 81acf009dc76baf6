package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeProviders writes a providers file pointing both entries at server
func writeProviders(t *testing.T, openaiURL, localURL string) string {
	t.Helper()
	doc := fmt.Sprintf(`providers:
  - name: openai
    provider: openai
    api_key: sk-test
    base_url: %s
    model_name: gpt-4o-mini
  - name: ollama
    provider: local
    base_url: %s
    max_retries: 1
`, openaiURL, localURL)

	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func openAIServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/models":
			_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4o-mini","created":1700000000,"owned_by":"openai"}]}`))
		case "/chat/completions":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, _ = fmt.Fprintf(w, `{"model":%q,"choices":[{"index":0,"message":{"role":"assistant","content":"pong"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`, body["model"])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func downServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"model loading"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no args prints help", nil, 0},
		{"help", []string{"help"}, 0},
		{"unknown", []string{"deploy"}, 1},
		{"unknown flag", []string{"models", "--bogus"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("expected exit %d, got %d", tt.code, code)
			}
		})
	}
}

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"providers", "test", "models", "chat", "embed"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("expected %s command, got %v (%v)", name, cmd, err)
			continue
		}
		if cmd.RunE == nil {
			t.Errorf("expected %s to use RunE", name)
		}
	}

	for _, flag := range []string{"config", "providers", "timeout"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag --%s", flag)
		}
	}
}

func TestRootCmd_SetArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"providers"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "anthropic") {
		t.Errorf("unexpected output %q", stdout.String())
	}
}

func TestRun_Providers(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"providers"}, &stdout, &stderr); code != 0 {
		t.Fatalf("unexpected exit %d: %s", code, stderr.String())
	}
	if got := strings.Fields(stdout.String()); strings.Join(got, ",") != "anthropic,google,local,openai,other" {
		t.Errorf("unexpected providers: %v", got)
	}
}

func TestRun_Models(t *testing.T) {
	path := writeProviders(t, openAIServer(t).URL, downServer(t).URL)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"models", "--providers", path, "--name", "openai"}, &stdout, &stderr); code != 0 {
		t.Fatalf("unexpected exit %d: %s", code, stderr.String())
	}

	var list []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &list); err != nil {
		t.Fatalf("invalid output %q: %v", stdout.String(), err)
	}
	if len(list) != 1 || list[0]["id"] != "gpt-4o-mini" {
		t.Errorf("unexpected models: %v", list)
	}
}

func TestRun_Chat(t *testing.T) {
	path := writeProviders(t, openAIServer(t).URL, downServer(t).URL)

	var stdout, stderr bytes.Buffer
	code := run([]string{"chat", "--providers", path, "--name", "openai", "--model", "gpt-4o", "-m", "ping"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("unexpected exit %d: %s", code, stderr.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid output %q: %v", stdout.String(), err)
	}
	if resp["content"] != "pong" || resp["model"] != "gpt-4o" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestRun_ChatErrors(t *testing.T) {
	path := writeProviders(t, openAIServer(t).URL, downServer(t).URL)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing message", []string{"chat", "--providers", path, "--name", "openai"}, "--message is required"},
		{"missing name", []string{"chat", "--providers", path, "-m", "hi"}, "--name is required"},
		{"unknown provider", []string{"chat", "--providers", path, "--name", "nope", "-m", "hi"}, "not found"},
		{"provider failure", []string{"chat", "--providers", path, "--name", "ollama", "-m", "hi"}, "model loading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("expected exit 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("expected %q in stderr, got %q", tt.want, stderr.String())
			}
		})
	}
}

func TestRun_Test(t *testing.T) {
	path := writeProviders(t, openAIServer(t).URL, downServer(t).URL)

	var stdout, stderr bytes.Buffer
	code := run([]string{"test", "--providers", path}, &stdout, &stderr)
	if code != 2 {
		t.Errorf("expected exit 2 when a provider is unhealthy, got %d", code)
	}

	var reports []struct {
		Name   string `json:"name"`
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &reports); err != nil {
		t.Fatalf("invalid output %q: %v", stdout.String(), err)
	}
	if len(reports) != 2 || reports[0].Result.Status != "success" || reports[1].Result.Status != "failed" {
		t.Errorf("unexpected reports: %+v", reports)
	}

	stdout.Reset()
	if code := run([]string{"test", "--providers", path, "--name", "openai"}, &stdout, &stderr); code != 0 {
		t.Errorf("expected exit 0 for a healthy provider, got %d", code)
	}
}
