package fastembed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultMaxLength, cfg.MaxLength)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
}

func TestConfig_ApplyDefaultsKeepsValues(t *testing.T) {
	cfg := Config{Model: "BAAI/bge-small-en-v1.5", MaxLength: 128, BatchSize: 4}
	cfg.applyDefaults()

	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Model)
	assert.Equal(t, 128, cfg.MaxLength)
	assert.Equal(t, 4, cfg.BatchSize)
}
