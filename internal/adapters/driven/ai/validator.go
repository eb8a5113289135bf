package ai

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.EmbeddingValidator = (*ConfigValidator)(nil)

// ConfigValidator validates embedding provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new embedding config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(ctx, config)
}
