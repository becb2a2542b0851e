package file

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Validate checks the configuration for structural errors.
// Failures are returned as criterio.FieldErrors.
func Validate(cfg domain.Config) error {
	dedup := cfg.Intelligence.Deduplication
	scoring := cfg.Intelligence.PriorityScoring

	return criterio.ValidateStruct(
		criterio.Run("ollama.host", cfg.Ollama.Host, required),
		criterio.Run("ollama.extraction_model", cfg.Ollama.ExtractionModel, required),
		criterio.Run("ollama.temperature", cfg.Ollama.Temperature, inRange(0, 2)),
		criterio.Run("ollama.max_tokens", cfg.Ollama.MaxTokens, positive),
		criterio.Run("ollama.timeout", cfg.Ollama.Timeout, positive),
		criterio.Run("ollama.max_retries", cfg.Ollama.MaxRetries, positive),
		criterio.Run("ollama.requests_per_second", cfg.Ollama.RequestsPerSecond, nonNegative),
		criterio.Run("llm.provider", cfg.LLM.Provider, llmProvider),
		criterio.Run("extraction.confidence_threshold", cfg.Extraction.ConfidenceThreshold, unitInterval),
		criterio.Run("extraction.chunk_size", cfg.Extraction.ChunkSize, positive),
		validateChunkOverlap(cfg.Extraction),
		criterio.Run("intelligence.deduplication.similarity_threshold", dedup.SimilarityThreshold, unitInterval),
		criterio.Run("intelligence.deduplication.fuzzy_threshold", dedup.FuzzyThreshold, unitInterval),
		criterio.Run("intelligence.deduplication.embedding_provider", dedup.EmbeddingProvider, embeddingProvider),
		criterio.Run("intelligence.deduplication.keep", dedup.Keep, keepPolicy),
		criterio.Run("intelligence.priority_scoring.base_score", scoring.BaseScore, unitInterval),
		criterio.Run("intelligence.entity_linking.min_entities_shared", cfg.Intelligence.EntityLinking.MinEntitiesShared, positive),
		criterio.Run("database.path", cfg.Database.Path, required),
		criterio.Run("reporting.output_dir", cfg.Reporting.OutputDir, required),
		criterio.Run("reporting.group_by", cfg.Reporting.GroupBy, groupBy),
		validateFormats(cfg.Reporting.Formats),
		criterio.Run("logging.level", cfg.Logging.Level, logLevel),
	)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

func positive(n int) error {
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func nonNegative(f float64) error {
	if f < 0 {
		return fmt.Errorf("must not be negative, got %g", f)
	}
	return nil
}

func inRange(lo, hi float64) func(float64) error {
	return func(f float64) error {
		if f < lo || f > hi {
			return fmt.Errorf("must be between %g and %g, got %g", lo, hi, f)
		}
		return nil
	}
}

func unitInterval(f float64) error {
	return inRange(0, 1)(f)
}

func llmProvider(p domain.AIProvider) error {
	if !p.SupportsLLM() {
		return fmt.Errorf("unsupported LLM provider %q (use ollama or openai)", p)
	}
	return nil
}

func embeddingProvider(p domain.AIProvider) error {
	if !p.IsValid() {
		return fmt.Errorf("unsupported embedding provider %q", p)
	}
	return nil
}

func keepPolicy(k domain.KeepPolicy) error {
	if !k.IsValid() {
		return fmt.Errorf("unknown keep policy %q", k)
	}
	return nil
}

func groupBy(g domain.GroupBy) error {
	if !g.IsValid() {
		return fmt.Errorf("unknown grouping %q", g)
	}
	return nil
}

func logLevel(level string) error {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
}

func validateChunkOverlap(c domain.ExtractionConfig) error {
	if c.ChunkOverlap < 0 {
		return criterio.NewFieldErrors("extraction.chunk_overlap", fmt.Errorf("must not be negative"))
	}
	if c.ChunkSize > 0 && c.ChunkOverlap >= c.ChunkSize*4 {
		return criterio.NewFieldErrors("extraction.chunk_overlap",
			fmt.Errorf("must be smaller than the chunk size in characters (%d)", c.ChunkSize*4))
	}
	return nil
}

func validateFormats(formats []string) error {
	var errs criterio.FieldErrorsBuilder
	for i, f := range formats {
		switch f {
		case "markdown", "json":
		default:
			errs = errs.Append(fmt.Sprintf("reporting.formats[%d]", i), fmt.Errorf("unknown format %q", f))
		}
	}
	return errs.ToError()
}
