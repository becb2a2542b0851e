package file

import (
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(domain.DefaultConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
		field  string
	}{
		{"empty host", func(c *domain.Config) { c.Ollama.Host = " " }, "ollama.host"},
		{"zero timeout", func(c *domain.Config) { c.Ollama.Timeout = 0 }, "ollama.timeout"},
		{"negative rate", func(c *domain.Config) { c.Ollama.RequestsPerSecond = -1 }, "ollama.requests_per_second"},
		{"fastembed as llm", func(c *domain.Config) { c.LLM.Provider = domain.AIProviderFastEmbed }, "llm.provider"},
		{"threshold above one", func(c *domain.Config) { c.Intelligence.Deduplication.SimilarityThreshold = 1.01 }, "intelligence.deduplication.similarity_threshold"},
		{"negative confidence", func(c *domain.Config) { c.Extraction.ConfidenceThreshold = -0.1 }, "extraction.confidence_threshold"},
		{"bad keep", func(c *domain.Config) { c.Intelligence.Deduplication.Keep = "oldest" }, "intelligence.deduplication.keep"},
		{"bad group", func(c *domain.Config) { c.Reporting.GroupBy = "author" }, "reporting.group_by"},
		{"bad format", func(c *domain.Config) { c.Reporting.Formats = []string{"json", "pdf"} }, "reporting.formats[1]"},
		{"overlap too large", func(c *domain.Config) { c.Extraction.ChunkOverlap = c.Extraction.ChunkSize * 4 }, "extraction.chunk_overlap"},
		{"bad level", func(c *domain.Config) { c.Logging.Level = "TRACE" }, "logging.level"},
		{"empty db path", func(c *domain.Config) { c.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultConfig()
			tt.mutate(&cfg)

			err := Validate(cfg)

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, tt.field, fieldErrs[0].Field)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Ollama.Host = ""
	cfg.Database.Path = ""

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, Validate(cfg), &fieldErrs)
	assert.Len(t, fieldErrs, 2)
}
