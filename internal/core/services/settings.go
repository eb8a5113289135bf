package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedMaxWorkers = "embedding.max_workers"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyCorpusDir       = "build.corpus_dir"
	keyMaxDocs         = "build.max_docs_per_topic"
	keySeed            = "build.seed"
	keyBuildMaxChars   = "build.max_abstract_chars"
	keyQueryMaxChars   = "retrieval.max_abstract_chars"
	keyDefaultK        = "retrieval.default_k"
	keyArtifactDir     = "router.artifact_dir"
	keyCacheEnabled    = "cache.enabled"
	keyCacheDir        = "cache.dir"
	keyServerAddr      = "server.addr"
)

// defaultOllamaURL is used when Ollama is selected without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
	baseDir     string
}

// NewSettingsService creates a new settings service.
// baseDir anchors the default artifact and cache directories.
// The validator is optional (can be nil).
func NewSettingsService(
	configStore driven.ConfigStore, validator driven.EmbeddingValidator, baseDir string,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
		baseDir:     baseDir,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.configStore.GetInt(keyEmbedDims),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			MaxWorkers:        s.getInt(keyEmbedMaxWorkers, defaults.Embedding.MaxWorkers),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		Build: domain.BuildSettings{
			CorpusDir:        s.configStore.GetString(keyCorpusDir),
			MaxDocsPerTopic:  s.getInt(keyMaxDocs, defaults.Build.MaxDocsPerTopic),
			Seed:             s.getSeed(defaults.Build.Seed),
			MaxAbstractChars: s.getInt(keyBuildMaxChars, defaults.Build.MaxAbstractChars),
		},
		Retrieval: domain.RetrievalSettings{
			MaxAbstractChars: s.getInt(keyQueryMaxChars, defaults.Retrieval.MaxAbstractChars),
			DefaultK:         s.getInt(keyDefaultK, defaults.Retrieval.DefaultK),
		},
		Router: domain.RouterSettings{
			ArtifactDir: s.getString(keyArtifactDir, defaults.Router.ArtifactDir),
		},
		Cache: domain.CacheSettings{
			Enabled: s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
			Dir:     s.getString(keyCacheDir, defaults.Cache.Dir),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedMaxWorkers, settings.Embedding.MaxWorkers},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyCorpusDir, settings.Build.CorpusDir},
		{keyMaxDocs, settings.Build.MaxDocsPerTopic},
		{keySeed, int64(settings.Build.Seed)},
		{keyBuildMaxChars, settings.Build.MaxAbstractChars},
		{keyQueryMaxChars, settings.Retrieval.MaxAbstractChars},
		{keyDefaultK, settings.Retrieval.DefaultK},
		{keyArtifactDir, settings.Router.ArtifactDir},
		{keyCacheEnabled, settings.Cache.Enabled},
		{keyCacheDir, settings.Cache.Dir},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	// Never overwrite a stored key with an empty one.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidParameter, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Keep a previously stored key when none is supplied.
	if apiKey == "" && settings.Embedding.Provider == provider {
		apiKey = settings.Embedding.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidParameter, provider)
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Track the model's native dimensions when known.
	settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]

	return s.Save(settings)
}

// SetBuild updates the corpus directory, sampling cap and seed.
// Empty or zero values leave the current setting unchanged.
func (s *SettingsService) SetBuild(corpusDir string, maxDocsPerTopic int, seed uint64) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if corpusDir != "" {
		settings.Build.CorpusDir = corpusDir
	}
	if maxDocsPerTopic != 0 {
		settings.Build.MaxDocsPerTopic = maxDocsPerTopic
	}
	if seed != 0 {
		settings.Build.Seed = seed
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.Save(settings)
}

// SetRetrieval updates query-time truncation and the default hit count.
// Zero values leave the current setting unchanged.
func (s *SettingsService) SetRetrieval(maxAbstractChars, defaultK int) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if maxAbstractChars != 0 {
		settings.Retrieval.MaxAbstractChars = maxAbstractChars
	}
	if defaultK != 0 {
		settings.Retrieval.DefaultK = defaultK
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.Save(settings)
}

// Validate checks that the current settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not fully configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns default settings with directories resolved against baseDir.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	defaults.Router.ArtifactDir = filepath.Join(s.baseDir, "router")
	defaults.Cache.Dir = filepath.Join(s.baseDir, "data")
	return defaults
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(ctx, &settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getSeed distinguishes an explicit seed of 0 from an unset one.
func (s *SettingsService) getSeed(defaultVal uint64) uint64 {
	if _, exists := s.configStore.Get(keySeed); !exists {
		return defaultVal
	}
	return uint64(s.configStore.GetInt(keySeed))
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
