// Package fastembed provides an in-process embedding service backed by
// ONNX sentence-transformer models. Builds without cgo get a stub that
// reports the backend as unavailable, so deduplication falls back to
// fuzzy matching.
package fastembed

// Default configuration values.
const (
	DefaultModel     = "all-MiniLM-L6-v2"
	DefaultMaxLength = 512
	DefaultBatchSize = 32
)

// Config holds configuration for the FastEmbed service.
type Config struct {
	// Model is the embedding model name (default: all-MiniLM-L6-v2).
	Model string

	// CacheDir is where model files are downloaded.
	CacheDir string

	// MaxLength is the maximum input sequence length (default: 512).
	MaxLength int

	// BatchSize is the number of texts embedded per ONNX call (default: 32).
	BatchSize int
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
}
