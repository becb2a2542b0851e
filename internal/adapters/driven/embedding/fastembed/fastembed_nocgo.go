//go:build !cgo

package fastembed

import (
	"context"
	"fmt"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// errNoCGO is returned when the binary was built without cgo.
var errNoCGO = fmt.Errorf("%w: fastembed requires a cgo build", domain.ErrEmbeddingUnavailable)

// EmbeddingService is a stub for non-cgo builds.
type EmbeddingService struct{}

// NewEmbeddingService always fails without cgo.
func NewEmbeddingService(_ Config) (*EmbeddingService, error) {
	return nil, errNoCGO
}

// Embed returns an error when cgo is not available.
func (s *EmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errNoCGO
}

// EmbedBatch returns an error when cgo is not available.
func (s *EmbeddingService) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errNoCGO
}

// Dimensions returns 0 when cgo is not available.
func (s *EmbeddingService) Dimensions() int {
	return 0
}

// ModelName returns an empty name when cgo is not available.
func (s *EmbeddingService) ModelName() string {
	return ""
}

// Ping returns an error when cgo is not available.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return errNoCGO
}

// Close is a no-op when cgo is not available.
func (s *EmbeddingService) Close() error {
	return nil
}
