// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/embedding/fastembed"
	ollamaembed "github.com/custodia-labs/convo-analyzer/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/convo-analyzer/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/convo-analyzer/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/convo-analyzer/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ModelCacheDir is where in-process embedding models are downloaded.
const ModelCacheDir = "data/models"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	LLMService       driven.LLMService
	EmbeddingService driven.EmbeddingService // Nil means fuzzy-only deduplication.
	Warnings         []string                // Non-fatal issues that caused fallback.
	FellBack         bool                    // True if dedup fell back to text matching.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates the LLM service and, when deduplication is enabled, an
// embedding service. An unusable embedding backend is a warning, not an
// error: deduplication falls back to fuzzy matching.
func Init(ctx context.Context, cfg domain.Config) (*InitResult, error) {
	llm, err := CreateLLMService(cfg)
	if err != nil {
		return nil, err
	}

	result := &InitResult{LLMService: llm}
	if !cfg.Intelligence.Deduplication.Enabled {
		return result, nil
	}

	create := CreateAndValidateEmbeddingService
	if isLocalEmbedding(cfg) {
		// Probing would load the local model. A failure on first use still
		// falls back to fuzzy matching in the deduplicator.
		create = func(_ context.Context, cfg domain.Config) (driven.EmbeddingService, error) {
			return CreateEmbeddingService(cfg)
		}
	}
	embed, err := create(ctx, cfg)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
		return result, nil
	}
	result.EmbeddingService = embed
	return result, nil
}

func isLocalEmbedding(cfg domain.Config) bool {
	p := cfg.Intelligence.Deduplication.EmbeddingProvider
	return p == domain.AIProviderFastEmbed || p == ""
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, cfg domain.Config) (driven.LLMService, error) {
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check that %s is running",
			domain.ErrLLMUnavailable, err, cfg.LLM.Provider.Description())
	}

	return svc, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates it.
func CreateAndValidateEmbeddingService(ctx context.Context, cfg domain.Config) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w)",
			domain.ErrEmbeddingUnavailable, cfg.Intelligence.Deduplication.EmbeddingProvider, err)
	}

	return svc, nil
}

// CreateLLMService creates the LLM service selected by llm.provider.
func CreateLLMService(cfg domain.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case domain.AIProviderOllama, "":
		return createOllamaLLM(cfg), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(cfg), nil

	case domain.AIProviderFastEmbed:
		return nil, fmt.Errorf("%w: fastembed does not support text generation, use ollama or openai",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, cfg.LLM.Provider)
	}
}

// CreateEmbeddingService creates the embedding service selected by
// intelligence.deduplication.embedding_provider.
func CreateEmbeddingService(cfg domain.Config) (driven.EmbeddingService, error) {
	dedup := cfg.Intelligence.Deduplication

	switch dedup.EmbeddingProvider {
	case domain.AIProviderFastEmbed, "":
		svc, err := fastembed.NewEmbeddingService(fastembed.Config{
			Model:    dedup.EmbeddingModel,
			CacheDir: ModelCacheDir,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Ollama.Host,
			Model:      dedup.EmbeddingModel,
			Timeout:    cfg.Ollama.RequestTimeout(),
			MaxRetries: cfg.Ollama.MaxRetries,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.LLM.OpenAI.APIKey,
			BaseURL:    cfg.LLM.OpenAI.BaseURL,
			Model:      dedup.EmbeddingModel,
			MaxRetries: cfg.Ollama.MaxRetries,
		}), nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, dedup.EmbeddingProvider)
	}
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(cfg domain.Config) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL:           cfg.Ollama.Host,
		Model:             cfg.Ollama.ExtractionModel,
		Timeout:           cfg.Ollama.RequestTimeout(),
		MaxRetries:        cfg.Ollama.MaxRetries,
		RequestsPerSecond: cfg.Ollama.RequestsPerSecond,
	})
}

// createOpenAILLM creates an OpenAI-compatible LLM service.
func createOpenAILLM(cfg domain.Config) driven.LLMService {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:            cfg.LLM.OpenAI.APIKey,
		BaseURL:           cfg.LLM.OpenAI.BaseURL,
		Model:             cfg.LLM.OpenAI.Model,
		Timeout:           cfg.Ollama.RequestTimeout(),
		MaxRetries:        cfg.Ollama.MaxRetries,
		RequestsPerSecond: cfg.Ollama.RequestsPerSecond,
	})
}
