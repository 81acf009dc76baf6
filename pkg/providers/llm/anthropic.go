package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/types"
)

const (
	anthropicMessagesEndpoint = "/messages"
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
)

var anthropicDefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

// anthropicModels is served by ListModels; the API has no discovery endpoint
// this adapter relies on
var anthropicModels = []models.ModelInfo{
	{ID: string(anthropic.ModelClaudeOpus4_20250514), Name: "Claude Opus 4", OwnedBy: "anthropic"},
	{ID: string(anthropic.ModelClaudeSonnet4_20250514), Name: "Claude Sonnet 4", OwnedBy: "anthropic"},
	{ID: string(anthropic.ModelClaude3_7Sonnet20250219), Name: "Claude 3.7 Sonnet", OwnedBy: "anthropic"},
	{ID: string(anthropic.ModelClaude3_5Haiku20241022), Name: "Claude 3.5 Haiku", OwnedBy: "anthropic"},
	{ID: string(anthropic.ModelClaude_3_Haiku_20240307), Name: "Claude 3 Haiku", OwnedBy: "anthropic"},
}

// AnthropicAdapter speaks the Anthropic Messages API
type AnthropicAdapter struct {
	*base.Adapter
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model         string             `json:"model"`
	Messages      []anthropicMessage `json:"messages"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Stream        bool               `json:"stream"`
}

// NewAnthropicAdapter creates an adapter for the Anthropic Messages API
func NewAnthropicAdapter(cfg types.ProviderConfig, opts ...base.Option) (*AnthropicAdapter, error) {
	if cfg.Provider == "" {
		cfg.Provider = types.ProviderAnthropic
	}
	core, err := base.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &AnthropicAdapter{Adapter: core}, nil
}

// BuildHeaders returns the Anthropic headers. The auth method is ignored;
// the key always travels in x-api-key.
func (a *AnthropicAdapter) BuildHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("x-api-key", a.Config().APIKey)
	h.Set("anthropic-version", anthropicVersion)
	return a.MergeCustomHeaders(h)
}

// buildRequest moves system messages into the system field. Several system
// messages are joined with a blank line.
func (a *AnthropicAdapter) buildRequest(messages []types.ChatMessage, opts *models.ChatOptions) anthropicRequest {
	req := anthropicRequest{
		Model:     firstNonEmpty(a.Config().ModelName, anthropicDefaultModel),
		Messages:  make([]anthropicMessage, 0, len(messages)),
		MaxTokens: anthropicDefaultMaxTokens,
	}

	var system []string
	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}
	req.System = strings.Join(system, "\n\n")

	if opts != nil {
		if opts.MaxTokens != nil {
			req.MaxTokens = *opts.MaxTokens
		}
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.StopSequences = opts.Stop
	}

	return req
}

// Chat sends a Messages API request
func (a *AnthropicAdapter) Chat(ctx context.Context, messages []types.ChatMessage, opts *models.ChatOptions) (*models.ChatResponse, error) {
	req := a.buildRequest(messages, opts)

	var resp anthropic.Message
	url := a.BuildURL(base.Endpoint(a.Config().ChatEndpoint, anthropicMessagesEndpoint))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Content) == 0 {
		return nil, base.NewInvalidResponseError("no content in messages response", resp.RawJSON())
	}

	result := &models.ChatResponse{
		Content: resp.Content[0].Text,
		Model:   firstNonEmpty(string(resp.Model), req.Model),
	}

	// some compatible proxies omit usage entirely
	if resp.JSON.Usage.Valid() {
		input := int(resp.Usage.InputTokens)
		output := int(resp.Usage.OutputTokens)
		result.Usage = &models.TokenUsage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		}
	}

	return result, nil
}

// Embeddings always fails; Anthropic has no embeddings API
func (a *AnthropicAdapter) Embeddings(context.Context, string) ([]float32, error) {
	return nil, base.NewUnsupportedError("anthropic", "embeddings")
}

// ListModels returns the known model table without a network call
func (a *AnthropicAdapter) ListModels(context.Context) ([]models.ModelInfo, error) {
	result := make([]models.ModelInfo, len(anthropicModels))
	copy(result, anthropicModels)
	return result, nil
}

// TestConnection sends a one token chat
func (a *AnthropicAdapter) TestConnection(ctx context.Context) models.TestResult {
	return a.MeasureConnection(ctx, func(ctx context.Context) error {
		_, err := a.Chat(ctx, []types.ChatMessage{{Role: types.RoleUser, Content: "Hi"}}, &models.ChatOptions{MaxTokens: models.Int(1)})
		return err
	})
}
