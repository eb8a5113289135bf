package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medroute/internal/core/domain"
)

// mockValidator records the settings it was asked to validate.
type mockValidator struct {
	err  error
	seen *domain.EmbeddingSettings
}

func (m *mockValidator) ValidateEmbedding(_ context.Context, cfg *domain.EmbeddingSettings) error {
	m.seen = cfg
	return m.err
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil, "/home/u/.medroute")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
	assert.Equal(t, "hashing-v1", settings.Embedding.Model)
	assert.Equal(t, 16, settings.Embedding.BatchSize)
	assert.Equal(t, 1, settings.Embedding.MaxWorkers)
	assert.Equal(t, 300, settings.Build.MaxDocsPerTopic)
	assert.Equal(t, uint64(42), settings.Build.Seed)
	assert.Equal(t, 600, settings.Build.MaxAbstractChars)
	assert.Equal(t, 800, settings.Retrieval.MaxAbstractChars)
	assert.Equal(t, filepath.Join("/home/u/.medroute", "router"), settings.Router.ArtifactDir)
	assert.Equal(t, filepath.Join("/home/u/.medroute", "data"), settings.Cache.Dir)
	assert.True(t, settings.Cache.Enabled)
	assert.Equal(t, ":8080", settings.Server.Addr)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.batch_size", 32)
	_ = store.Set("embedding.requests_per_second", 2.5)
	_ = store.Set("build.corpus_dir", "/data/corpus")
	_ = store.Set("build.seed", 0)
	_ = store.Set("cache.enabled", false)
	_ = store.Set("router.artifact_dir", "/srv/router")

	settings, err := NewSettingsService(store, nil, "/base").Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model, "model defaults per provider")
	assert.Equal(t, 32, settings.Embedding.BatchSize)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, "/data/corpus", settings.Build.CorpusDir)
	assert.Equal(t, uint64(0), settings.Build.Seed, "an explicit zero seed is kept")
	assert.False(t, settings.Cache.Enabled)
	assert.Equal(t, "/srv/router", settings.Router.ArtifactDir)
}

func TestSettingsService_Get_InvalidProviderReturnsDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")

	settings, err := NewSettingsService(store, nil, "/base").Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil, "/base")

	settings := service.GetDefaults()
	settings.Build.CorpusDir = "/corpus"
	settings.Retrieval.DefaultK = 5
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
	assert.Equal(t, 1, store.Saves())
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama gets a default base url", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := NewSettingsService(store, nil, "/base")

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
		assert.Equal(t, 768, settings.Embedding.Dimensions)
	})

	t.Run("openai requires a key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil, "/base")

		err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")

		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("openai with key and custom model", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := NewSettingsService(store, nil, "/base")

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
		assert.Empty(t, settings.Embedding.BaseURL)
		assert.Equal(t, 3072, settings.Embedding.Dimensions)

		// Re-selecting the provider keeps the stored key.
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
		settings, err = service.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	})

	t.Run("unknown provider", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil, "/base")

		err := service.SetEmbeddingProvider("anthropic", "", "key")

		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestSettingsService_SetBuildAndRetrieval(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil, "/base")

	require.NoError(t, service.SetBuild("/corpus", 100, 7))
	require.NoError(t, service.SetRetrieval(500, 3))
	require.NoError(t, service.SetBuild("", 0, 0), "zero values leave settings unchanged")

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "/corpus", settings.Build.CorpusDir)
	assert.Equal(t, 100, settings.Build.MaxDocsPerTopic)
	assert.Equal(t, uint64(7), settings.Build.Seed)
	assert.Equal(t, 500, settings.Retrieval.MaxAbstractChars)
	assert.Equal(t, 3, settings.Retrieval.DefaultK)

	assert.ErrorIs(t, service.SetBuild("", -1, 0), domain.ErrInvalidParameter)
	assert.ErrorIs(t, service.SetRetrieval(-5, 0), domain.ErrInvalidParameter)
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil, "/base")
	assert.NoError(t, service.Validate())

	_ = store.Set("embedding.provider", "openai")
	assert.ErrorIs(t, service.Validate(), domain.ErrEmbeddingUnavailable)

	_ = store.Set("embedding.api_key", "sk-test")
	assert.NoError(t, service.Validate())
}

func TestSettingsService_ValidateEmbeddingConfig(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil, "/base")
	assert.NoError(t, service.ValidateEmbeddingConfig(context.Background()), "no validator means nothing to check")

	v := &mockValidator{err: errors.New("unreachable")}
	service = NewSettingsService(memory.NewConfigStore(), v, "/base")

	err := service.ValidateEmbeddingConfig(context.Background())

	assert.EqualError(t, err, "unreachable")
	require.NotNil(t, v.seen)
	assert.Equal(t, domain.AIProviderHashing, v.seen.Provider)
}
