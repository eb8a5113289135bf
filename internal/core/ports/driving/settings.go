package driving

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetBuild updates the corpus directory, sampling cap and seed.
	SetBuild(corpusDir string, maxDocsPerTopic int, seed uint64) error

	// SetRetrieval updates query-time truncation and the default hit count.
	SetRetrieval(maxAbstractChars, defaultK int) error

	// Validate checks that the current settings can run the pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig(ctx context.Context) error
}
