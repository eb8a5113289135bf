// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Implementations return raw model output. Normalisation, batching and the
// worker cap are applied by the core encoder, so adapters stay thin.
//
// Implementations include:
//   - Hashing (built-in feature hashing, offline)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result is index-aligned with texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// Router artifacts record it so that query-time routing can refuse a mismatch.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores raw embeddings keyed by model and text digest.
type EmbeddingCache interface {
	// Get returns the cached vectors for the given keys. Missing keys are absent from the map.
	Get(ctx context.Context, model string, keys []string) (map[string][]float32, error)

	// Put stores vectors under their keys.
	Put(ctx context.Context, model string, vectors map[string][]float32) error
}

// EmbeddingValidator checks an embedding configuration by connecting to the provider.
type EmbeddingValidator interface {
	// ValidateEmbedding returns nil if the provider answers a ping.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error
}
