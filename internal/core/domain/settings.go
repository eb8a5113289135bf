package domain

import (
	"errors"
	"fmt"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderHashing is the built-in feature-hashing embedder. It needs no network.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs on this machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderHashing || p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size. Zero means the model default.
	Dimensions int

	// BatchSize is how many texts are sent to the provider per call.
	BatchSize int

	// MaxWorkers caps concurrent provider calls process-wide.
	MaxWorkers int

	// RequestsPerSecond throttles remote providers. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// BuildSettings holds offline router build configuration.
type BuildSettings struct {
	// CorpusDir holds one JSON document file per topic.
	CorpusDir string

	// MaxDocsPerTopic caps documents per centroid.
	MaxDocsPerTopic int

	// Seed drives the sampling RNG.
	Seed uint64

	// MaxAbstractChars truncates abstracts before embedding.
	MaxAbstractChars int
}

// RetrievalSettings holds query-time configuration.
type RetrievalSettings struct {
	// MaxAbstractChars truncates abstracts when building retrieval indexes.
	MaxAbstractChars int

	// DefaultK is the hit count used when a request does not specify k.
	DefaultK int
}

// RouterSettings locates the router artifact.
type RouterSettings struct {
	// ArtifactDir holds topic_centroids.npy and topic_router.json.
	ArtifactDir string
}

// CacheSettings controls the persistent embedding cache and build history.
type CacheSettings struct {
	// Enabled turns on the SQLite store.
	Enabled bool

	// Dir holds the SQLite database.
	Dir string
}

// ServerSettings configures the HTTP front door.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Build     BuildSettings
	Retrieval RetrievalSettings
	Router    RouterSettings
	Cache     CacheSettings
	Server    ServerSettings
}

// Default settings values.
const (
	DefaultBatchSize             = 16
	DefaultMaxWorkers            = 1
	DefaultMaxDocsPerTopic       = 300
	DefaultSeed                  = 42
	DefaultBuildMaxAbstractChars = 600
	DefaultQueryMaxAbstractChars = 800
	DefaultK                     = 8
	DefaultServerAddr            = ":8080"
)

// DefaultAppSettings returns settings with sensible defaults.
// Directory paths are left empty; the settings service resolves them
// relative to the configuration directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Model:      DefaultEmbeddingModels()[AIProviderHashing],
			BatchSize:  DefaultBatchSize,
			MaxWorkers: DefaultMaxWorkers,
		},
		Build: BuildSettings{
			MaxDocsPerTopic:  DefaultMaxDocsPerTopic,
			Seed:             DefaultSeed,
			MaxAbstractChars: DefaultBuildMaxAbstractChars,
		},
		Retrieval: RetrievalSettings{
			MaxAbstractChars: DefaultQueryMaxAbstractChars,
			DefaultK:         DefaultK,
		},
		Cache: CacheSettings{
			Enabled: true,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (s AppSettings) Validate() error {
	var errs []error
	if !s.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("embedding.provider %q is not one of %v", s.Embedding.Provider, AllEmbeddingProviders()))
	}
	if s.Embedding.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("embedding.batch_size must be >= 1, got %d", s.Embedding.BatchSize))
	}
	if s.Embedding.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("embedding.max_workers must be >= 1, got %d", s.Embedding.MaxWorkers))
	}
	if s.Embedding.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be >= 0, got %d", s.Embedding.Dimensions))
	}
	if s.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("embedding.requests_per_second must be >= 0, got %v", s.Embedding.RequestsPerSecond))
	}
	if s.Build.MaxDocsPerTopic < 1 {
		errs = append(errs, fmt.Errorf("build.max_docs_per_topic must be >= 1, got %d", s.Build.MaxDocsPerTopic))
	}
	if s.Build.MaxAbstractChars < 1 {
		errs = append(errs, fmt.Errorf("build.max_abstract_chars must be >= 1, got %d", s.Build.MaxAbstractChars))
	}
	if s.Retrieval.MaxAbstractChars < 1 {
		errs = append(errs, fmt.Errorf("retrieval.max_abstract_chars must be >= 1, got %d", s.Retrieval.MaxAbstractChars))
	}
	if s.Retrieval.DefaultK < 1 {
		errs = append(errs, fmt.Errorf("retrieval.default_k must be >= 1, got %d", s.Retrieval.DefaultK))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidParameter, errors.Join(errs...))
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-v1": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
