package ai

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// ConfigValidator validates AI provider configurations by pinging them.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateLLM reports whether the configured LLM provider answers.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, cfg domain.Config) error {
	svc, err := CreateAndValidateLLMService(ctx, cfg)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateEmbedding reports whether the configured embedding provider works.
// Returns nil when deduplication is disabled.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, cfg domain.Config) error {
	if !cfg.Intelligence.Deduplication.Enabled {
		return nil
	}
	svc, err := CreateAndValidateEmbeddingService(ctx, cfg)
	if err != nil {
		return err
	}
	return svc.Close()
}
