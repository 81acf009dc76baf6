package interfaces

import (
	"context"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/types"
)

// Adapter is the uniform client over one provider's wire protocol.
// Chat, Embeddings and ListModels fail with *base.ProviderError.
type Adapter interface {
	// Provider returns the provider type this adapter speaks
	Provider() types.ProviderType

	ChatService
	EmbeddingService
	ModelLister

	// TestConnection probes the provider and reports the outcome.
	// It never fails; problems are reported with status "failed".
	TestConnection(ctx context.Context) models.TestResult
}

// ChatService provides chat completion functionality
type ChatService interface {
	Chat(ctx context.Context, messages []types.ChatMessage, opts *models.ChatOptions) (*models.ChatResponse, error)
}

// EmbeddingService provides embedding generation functionality
type EmbeddingService interface {
	Embeddings(ctx context.Context, text string) ([]float32, error)
}

// ModelLister provides model discovery
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

// AdapterSource resolves a configuration to a ready adapter.
// registry.ProviderRegistry and factory.AdapterFactory implement it.
type AdapterSource interface {
	GetAdapter(cfg types.ProviderConfig) (Adapter, error)
}
