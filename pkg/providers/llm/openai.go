package llm

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/types"
)

const (
	openAIChatEndpoint       = "/chat/completions"
	openAIEmbeddingsEndpoint = "/embeddings"
	openAIModelsEndpoint     = "/models"
)

// wireDefaults are the model names used when the config leaves them empty
type wireDefaults struct {
	chatModel      string
	embeddingModel string
}

var openAIDefaults = wireDefaults{
	chatModel:      "gpt-4o-mini",
	embeddingModel: string(openai.SmallEmbedding3),
}

// OpenAIAdapter speaks the OpenAI chat completions protocol. It also serves
// any OpenAI-compatible endpoint registered as "other".
type OpenAIAdapter struct {
	*base.Adapter
	defaults wireDefaults
}

type openAIChatRequest struct {
	Model            string                         `json:"model"`
	Messages         []openai.ChatCompletionMessage `json:"messages"`
	Temperature      *float64                       `json:"temperature,omitempty"`
	MaxTokens        *int                           `json:"max_tokens,omitempty"`
	TopP             *float64                       `json:"top_p,omitempty"`
	FrequencyPenalty *float64                       `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64                       `json:"presence_penalty,omitempty"`
	Stop             []string                       `json:"stop,omitempty"`
	Stream           bool                           `json:"stream"`
}

// openAIChatResponse keeps usage optional; openai.ChatCompletionResponse
// would zero-fill it
type openAIChatResponse struct {
	Model   string                        `json:"model"`
	Choices []openai.ChatCompletionChoice `json:"choices"`
	Usage   *openai.Usage                 `json:"usage"`
}

// NewOpenAIAdapter creates an adapter for an OpenAI-compatible API
func NewOpenAIAdapter(cfg types.ProviderConfig, opts ...base.Option) (*OpenAIAdapter, error) {
	if cfg.Provider == "" {
		cfg.Provider = types.ProviderOpenAI
	}
	return newOpenAIAdapter(cfg, openAIDefaults, opts...)
}

func newOpenAIAdapter(cfg types.ProviderConfig, defaults wireDefaults, opts ...base.Option) (*OpenAIAdapter, error) {
	core, err := base.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &OpenAIAdapter{Adapter: core, defaults: defaults}, nil
}

func (a *OpenAIAdapter) chatModel() string {
	return firstNonEmpty(a.Config().ModelName, a.defaults.chatModel)
}

func (a *OpenAIAdapter) embeddingModel() string {
	return firstNonEmpty(a.Config().EmbeddingModel, a.defaults.embeddingModel)
}

func (a *OpenAIAdapter) buildChatRequest(messages []types.ChatMessage, opts *models.ChatOptions) openAIChatRequest {
	req := openAIChatRequest{
		Model:    a.chatModel(),
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	if opts != nil {
		req.Temperature = opts.Temperature
		req.MaxTokens = opts.MaxTokens
		req.TopP = opts.TopP
		req.FrequencyPenalty = opts.FrequencyPenalty
		req.PresencePenalty = opts.PresencePenalty
		req.Stop = opts.Stop
	}

	return req
}

// Chat sends a chat completion request
func (a *OpenAIAdapter) Chat(ctx context.Context, messages []types.ChatMessage, opts *models.ChatOptions) (*models.ChatResponse, error) {
	req := a.buildChatRequest(messages, opts)

	var resp openAIChatResponse
	url := a.BuildURL(base.Endpoint(a.Config().ChatEndpoint, openAIChatEndpoint))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, base.NewInvalidResponseError("no choices in chat response", resp)
	}

	result := &models.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   firstNonEmpty(resp.Model, req.Model),
	}
	if resp.Usage != nil {
		result.Usage = &models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return result, nil
}

// Embeddings returns the embedding vector for text
func (a *OpenAIAdapter) Embeddings(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: text,
		Model: openai.EmbeddingModel(a.embeddingModel()),
	}

	var resp openai.EmbeddingResponse
	url := a.BuildURL(base.Endpoint(a.Config().EmbeddingsEndpoint, openAIEmbeddingsEndpoint))
	if err := a.MakeRequest(ctx, http.MethodPost, url, a.BuildHeaders(), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, base.NewInvalidResponseError("empty embedding returned", resp)
	}

	return resp.Data[0].Embedding, nil
}

// ListModels lists the models exposed by the models endpoint
func (a *OpenAIAdapter) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	var resp modelsEnvelope
	url := a.BuildURL(base.Endpoint(a.Config().ModelsEndpoint, openAIModelsEndpoint))
	if err := a.MakeRequest(ctx, http.MethodGet, url, a.BuildHeaders(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.normalize(""), nil
}

// TestConnection probes the models endpoint
func (a *OpenAIAdapter) TestConnection(ctx context.Context) models.TestResult {
	return a.MeasureConnection(ctx, func(ctx context.Context) error {
		_, err := a.ListModels(ctx)
		return err
	})
}
