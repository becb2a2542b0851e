//go:build !cgo

package fastembed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func TestNewEmbeddingService_NoCGO(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	var s EmbeddingService
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
	assert.Zero(t, s.Dimensions())
	assert.NoError(t, s.Close())
}
