package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// chdir switches to a fresh directory so default path lookup sees no files.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_DefaultsOnly(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdir(t)
	content := `
ollama:
  host: http://gpu-box:11434
  extraction_model: llama3.2
extraction:
  confidence_threshold: 0.7
intelligence:
  deduplication:
    keep: highest_confidence
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.Host)
	assert.Equal(t, "llama3.2", cfg.Ollama.ExtractionModel)
	assert.InDelta(t, 0.7, cfg.Extraction.ConfidenceThreshold, 1e-9)
	assert.Equal(t, domain.KeepHighestConfidence, cfg.Intelligence.Deduplication.Keep)
	// Untouched values keep their defaults.
	assert.Equal(t, 60, cfg.Ollama.Timeout)
	assert.Equal(t, "data/database/analyzer.db", cfg.Database.Path)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analyzer.toml")
	content := `
[database]
path = "custom/items.db"

[reporting]
group_by = "priority"
formats = ["json"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom/items.db", cfg.Database.Path)
	assert.Equal(t, domain.GroupByPriority, cfg.Reporting.GroupBy)
	assert.Equal(t, []string{"json"}, cfg.Reporting.Formats)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("OLLAMA_HOST", "http://env-host:11434")
	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("DATABASE_PATH", "env/analyzer.db")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CONVO_ANALYZER_INTELLIGENCE_DEDUPLICATION_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("CONVO_ANALYZER_EXTRACTION_USE_CHAT", "true")
	t.Setenv("CONVO_ANALYZER_NOT_A_FIELD", "ignored")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://env-host:11434", cfg.Ollama.Host)
	assert.Equal(t, "mistral", cfg.Ollama.ExtractionModel)
	assert.Equal(t, "env/analyzer.db", cfg.Database.Path)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.InDelta(t, 0.9, cfg.Intelligence.Deduplication.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.Extraction.UseChat)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("ollama:\n  host: http://file-host:11434\n"), 0o600))
	t.Setenv("OLLAMA_HOST", "http://env-host:11434")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://env-host:11434", cfg.Ollama.Host)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open config file")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  confidence_threshold: 1.5\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "extraction.confidence_threshold", fieldErrs[0].Field)
}

func TestResolvePath(t *testing.T) {
	dir := chdir(t)
	assert.Empty(t, ResolvePath(""))
	assert.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(""), 0o600))
	assert.Equal(t, "config.toml", ResolvePath(""))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(""), 0o600))
	assert.Equal(t, "config.yaml", ResolvePath(""))
}

func TestEnvToKey(t *testing.T) {
	known := envKeys([]string{"ollama.host", "intelligence.entity_linking.min_entities_shared"})

	assert.Equal(t, "ollama.host", envToKey("OLLAMA_HOST", known))
	assert.Equal(t, "logging.file", envToKey("LOG_FILE", known))
	assert.Equal(t, "intelligence.entity_linking.min_entities_shared",
		envToKey("CONVO_ANALYZER_INTELLIGENCE_ENTITY_LINKING_MIN_ENTITIES_SHARED", known))
	assert.Empty(t, envToKey("HOME", known))
	assert.Empty(t, envToKey("CONVO_ANALYZER_UNKNOWN", known))
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "db", "analyzer.db")
	cfg.Logging.File = filepath.Join(dir, "logs", "analyzer.log")
	cfg.Reporting.OutputDir = filepath.Join(dir, "reports")

	require.NoError(t, EnsureDirectories(cfg))

	for _, sub := range []string{"db", "logs", "reports"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
