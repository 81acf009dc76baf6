package llm

import (
	"context"
	"net/http"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/types"
)

const (
	localChatEndpoint       = "/api/chat"
	localEmbeddingsEndpoint = "/api/embeddings"
	localModelsEndpoint     = "/api/tags"
)

var localDefaults = wireDefaults{
	chatModel:      "llama2",
	embeddingModel: "nomic-embed-text",
}

// LocalAdapter speaks the Ollama API. Authentication is optional.
type LocalAdapter struct {
	*base.Adapter
}

type localOptions struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	NumPredict       *int     `json:"num_predict,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`
}

type localChatRequest struct {
	Model    string              `json:"model"`
	Messages []types.ChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *localOptions       `json:"options,omitempty"`
}

type localChatResponse struct {
	Model           string             `json:"model"`
	Message         *types.ChatMessage `json:"message"`
	Response        string             `json:"response"`
	PromptEvalCount *int               `json:"prompt_eval_count"`
	EvalCount       *int               `json:"eval_count"`
}

type localEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type localEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewLocalAdapter creates an adapter for an Ollama-style server
func NewLocalAdapter(cfg types.ProviderConfig, opts ...base.Option) (*LocalAdapter, error) {
	if cfg.Provider == "" {
		cfg.Provider = types.ProviderLocal
	}
	core, err := base.New(cfg, append([]base.Option{base.AllowNoAuth()}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &LocalAdapter{Adapter: core}, nil
}

func (a *LocalAdapter) buildChatRequest(messages []types.ChatMessage, opts *models.ChatOptions) localChatRequest {
	req := localChatRequest{
		Model:    firstNonEmpty(a.Config().ModelName, localDefaults.chatModel),
		Messages: messages,
	}
	if opts != nil {
		req.Options = &localOptions{
			Temperature:      opts.Temperature,
			NumPredict:       opts.MaxTokens,
			TopP:             opts.TopP,
			FrequencyPenalty: opts.FrequencyPenalty,
			PresencePenalty:  opts.PresencePenalty,
			Stop:             opts.Stop,
		}
	}
	return req
}

// Chat sends a non-streaming /api/chat request
func (a *LocalAdapter) Chat(ctx context.Context, messages []types.ChatMessage, opts *models.ChatOptions) (*models.ChatResponse, error) {
	req := a.buildChatRequest(messages, opts)

	var resp localChatResponse
	url := a.BuildURL(base.Endpoint(a.Config().ChatEndpoint, localChatEndpoint))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	content := resp.Response
	if resp.Message != nil {
		content = firstNonEmpty(resp.Message.Content, resp.Response)
	}

	result := &models.ChatResponse{
		Content: content,
		Model:   firstNonEmpty(resp.Model, req.Model),
	}
	if resp.PromptEvalCount != nil && resp.EvalCount != nil {
		result.Usage = &models.TokenUsage{
			PromptTokens:     *resp.PromptEvalCount,
			CompletionTokens: *resp.EvalCount,
			TotalTokens:      *resp.PromptEvalCount + *resp.EvalCount,
		}
	}

	return result, nil
}

// Embeddings calls /api/embeddings
func (a *LocalAdapter) Embeddings(ctx context.Context, text string) ([]float32, error) {
	req := localEmbeddingRequest{
		Model:  firstNonEmpty(a.Config().EmbeddingModel, localDefaults.embeddingModel),
		Prompt: text,
	}

	var resp localEmbeddingResponse
	url := a.BuildURL(base.Endpoint(a.Config().EmbeddingsEndpoint, localEmbeddingsEndpoint))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embedding) == 0 {
		return nil, base.NewInvalidResponseError("empty embedding returned", resp)
	}

	return resp.Embedding, nil
}

// ListModels lists installed models from /api/tags
func (a *LocalAdapter) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	var resp modelsEnvelope
	url := a.BuildURL(base.Endpoint(a.Config().ModelsEndpoint, localModelsEndpoint))
	if err := a.MakeRequest(ctx, http.MethodGet, url, a.BuildHeaders(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.normalize("local"), nil
}

// TestConnection probes /api/tags
func (a *LocalAdapter) TestConnection(ctx context.Context) models.TestResult {
	return a.MeasureConnection(ctx, func(ctx context.Context) error {
		_, err := a.ListModels(ctx)
		return err
	})
}
