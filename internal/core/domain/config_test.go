package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Host)
	assert.Equal(t, "nuextract", cfg.Ollama.ExtractionModel)
	assert.Equal(t, 3, cfg.Ollama.MaxRetries)
	assert.Equal(t, AIProviderOllama, cfg.LLM.Provider)
	assert.InDelta(t, 0.5, cfg.Extraction.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.85, cfg.Intelligence.Deduplication.SimilarityThreshold, 1e-9)
	assert.Equal(t, KeepFirst, cfg.Intelligence.Deduplication.Keep)
	assert.Equal(t, 1, cfg.Intelligence.EntityLinking.MinEntitiesShared)
	assert.Equal(t, GroupByType, cfg.Reporting.GroupBy)
	assert.False(t, cfg.Reporting.IncludeDuplicates)
	assert.Equal(t, "30 days ago", cfg.Sources.Git.Since)
	require.Len(t, cfg.Intelligence.PriorityScoring.SecurityKeywords, 5)
}

func TestOllamaConfig_RequestTimeout(t *testing.T) {
	cfg := OllamaConfig{Timeout: 60}
	assert.Equal(t, time.Minute, cfg.RequestTimeout())
}

func TestAIProvider(t *testing.T) {
	tests := []struct {
		provider AIProvider
		valid    bool
		llm      bool
	}{
		{AIProviderOllama, true, true},
		{AIProviderOpenAI, true, true},
		{AIProviderFastEmbed, true, false},
		{AIProvider("anthropic"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
			assert.Equal(t, tt.llm, tt.provider.SupportsLLM())
		})
	}
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestGroupBy_IsValid(t *testing.T) {
	for _, g := range AllGroupings() {
		assert.True(t, g.IsValid())
	}
	assert.False(t, GroupBy("date").IsValid())
}

func TestSourcesConfig_Patterns(t *testing.T) {
	s := SourcesConfig{
		Conversations: []string{"a/*.md"},
		Code:          []string{"**/*.go"},
		Documents:     []string{"TODO.md"},
	}
	assert.Equal(t, []string{"a/*.md", "**/*.go", "TODO.md"}, s.Patterns())
}

func TestConfig_Directories(t *testing.T) {
	cfg := DefaultConfig()
	dirs := cfg.Directories()

	assert.Equal(t, []string{
		filepath.Join("data", "database"),
		filepath.Join("data", "logs"),
		"data/reports",
	}, dirs)
}
