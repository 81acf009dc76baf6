package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/types"
)

const (
	geminiModelsEndpoint = "/models"
	geminiModelPrefix    = "models/"
)

var geminiDefaults = wireDefaults{
	chatModel:      "gemini-1.5-flash",
	embeddingModel: "text-embedding-004",
}

// GoogleAdapter speaks the Gemini API. When the base URL or chat endpoint
// contains "/openai" it uses Gemini's OpenAI-compatible surface instead of
// the native generateContent protocol.
type GoogleAdapter struct {
	*base.Adapter

	// compat is set in OpenAI-compatible mode
	compat *OpenAIAdapter
}

type geminiRequest struct {
	Contents          []*genai.Content        `json:"contents"`
	GenerationConfig  *genai.GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
}

type geminiEmbedRequest struct {
	Model   string         `json:"model"`
	Content *genai.Content `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding *genai.ContentEmbedding `json:"embedding"`
}

type geminiModelsResponse struct {
	Models []*genai.Model `json:"models"`
	Data   []*genai.Model `json:"data"`
}

func (r geminiModelsResponse) entries() []*genai.Model {
	if len(r.Models) > 0 {
		return r.Models
	}
	return r.Data
}

// NewGoogleAdapter creates a Gemini adapter, choosing the mode from cfg
func NewGoogleAdapter(cfg types.ProviderConfig, opts ...base.Option) (*GoogleAdapter, error) {
	if cfg.Provider == "" {
		cfg.Provider = types.ProviderGoogle
	}

	if isOpenAICompatible(cfg) {
		compat, err := newOpenAIAdapter(cfg, geminiDefaults, opts...)
		if err != nil {
			return nil, err
		}
		return &GoogleAdapter{Adapter: compat.Adapter, compat: compat}, nil
	}

	core, err := base.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleAdapter{Adapter: core}, nil
}

func isOpenAICompatible(cfg types.ProviderConfig) bool {
	return strings.Contains(cfg.BaseURL, "/openai") || strings.Contains(cfg.ChatEndpoint, "/openai")
}

// OpenAICompatible reports whether the adapter uses the OpenAI wire shape
func (a *GoogleAdapter) OpenAICompatible() bool {
	return a.compat != nil
}

// BuildHeaders returns bearer headers in compatible mode and x-goog-api-key
// headers in native mode
func (a *GoogleAdapter) BuildHeaders() http.Header {
	if a.compat != nil {
		return a.compat.BuildHeaders()
	}

	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("x-goog-api-key", a.Config().APIKey)
	return a.MergeCustomHeaders(h)
}

func (a *GoogleAdapter) modelPath(model, method string) string {
	return fmt.Sprintf("/models/%s:%s", strings.TrimPrefix(model, geminiModelPrefix), method)
}

// buildRequest converts messages to Gemini contents. assistant becomes
// model and system messages become the system instruction.
func (a *GoogleAdapter) buildRequest(messages []types.ChatMessage, opts *models.ChatOptions) geminiRequest {
	req := geminiRequest{
		Contents: make([]*genai.Content, 0, len(messages)),
	}

	var system []*genai.Part
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			system = append(system, &genai.Part{Text: msg.Content})
		case types.RoleAssistant:
			req.Contents = append(req.Contents, &genai.Content{
				Role:  string(genai.RoleModel),
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			req.Contents = append(req.Contents, &genai.Content{
				Role:  string(genai.RoleUser),
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &genai.Content{Parts: system}
	}

	if opts != nil {
		cfg := &genai.GenerationConfig{
			StopSequences: opts.Stop,
		}
		if opts.Temperature != nil {
			cfg.Temperature = genai.Ptr(float32(*opts.Temperature))
		}
		if opts.TopP != nil {
			cfg.TopP = genai.Ptr(float32(*opts.TopP))
		}
		if opts.MaxTokens != nil {
			cfg.MaxOutputTokens = int32(*opts.MaxTokens)
		}
		if opts.FrequencyPenalty != nil {
			cfg.FrequencyPenalty = genai.Ptr(float32(*opts.FrequencyPenalty))
		}
		if opts.PresencePenalty != nil {
			cfg.PresencePenalty = genai.Ptr(float32(*opts.PresencePenalty))
		}
		req.GenerationConfig = cfg
	}

	return req
}

// Chat sends a generateContent request, or a chat completion in compatible mode
func (a *GoogleAdapter) Chat(ctx context.Context, messages []types.ChatMessage, opts *models.ChatOptions) (*models.ChatResponse, error) {
	if a.compat != nil {
		return a.compat.Chat(ctx, messages, opts)
	}

	model := firstNonEmpty(a.Config().ModelName, geminiDefaults.chatModel)
	req := a.buildRequest(messages, opts)

	var resp genai.GenerateContentResponse
	url := a.BuildURL(base.Endpoint(a.Config().ChatEndpoint, a.modelPath(model, "generateContent")))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, base.NewInvalidResponseError("no candidates in generateContent response", resp)
	}

	result := &models.ChatResponse{
		Content: resp.Candidates[0].Content.Parts[0].Text,
		Model:   firstNonEmpty(resp.ModelVersion, model),
	}
	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = &models.TokenUsage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	return result, nil
}

// Embeddings calls embedContent, or the embeddings endpoint in compatible mode
func (a *GoogleAdapter) Embeddings(ctx context.Context, text string) ([]float32, error) {
	if a.compat != nil {
		return a.compat.Embeddings(ctx, text)
	}

	model := strings.TrimPrefix(firstNonEmpty(a.Config().EmbeddingModel, geminiDefaults.embeddingModel), geminiModelPrefix)
	req := geminiEmbedRequest{
		Model:   geminiModelPrefix + model,
		Content: genai.NewContentFromText(text, genai.RoleUser),
	}

	var resp geminiEmbedResponse
	url := a.BuildURL(base.Endpoint(a.Config().EmbeddingsEndpoint, a.modelPath(model, "embedContent")))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, base.NewInvalidResponseError("empty embedding returned", resp)
	}

	return resp.Embedding.Values, nil
}

// ListModels lists Gemini models with the "models/" prefix removed
func (a *GoogleAdapter) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	if a.compat != nil {
		return a.compat.ListModels(ctx)
	}

	var resp geminiModelsResponse
	url := a.BuildURL(base.Endpoint(a.Config().ModelsEndpoint, geminiModelsEndpoint))
	if err := a.MakeRequest(ctx, http.MethodGet, url, a.BuildHeaders(), nil, &resp); err != nil {
		return nil, err
	}

	entries := resp.entries()
	result := make([]models.ModelInfo, 0, len(entries))
	for _, m := range entries {
		if m == nil || m.Name == "" {
			continue
		}
		id := strings.TrimPrefix(m.Name, geminiModelPrefix)
		result = append(result, models.ModelInfo{
			ID:      id,
			Name:    firstNonEmpty(m.DisplayName, id),
			OwnedBy: "google",
		})
	}

	return result, nil
}

// TestConnection probes the models endpoint
func (a *GoogleAdapter) TestConnection(ctx context.Context) models.TestResult {
	return a.MeasureConnection(ctx, func(ctx context.Context) error {
		_, err := a.ListModels(ctx)
		return err
	})
}
