package driven

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// ChunkProcessor transforms parsed chunks before extraction.
// Processors are chained in a pipeline (e.g., splitting oversized text).
type ChunkProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes chunks and returns the transformed chunks.
	Process(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// ChunkPipeline chains multiple ChunkProcessors.
type ChunkPipeline interface {
	// Process runs the chunks through all processors in order.
	Process(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error)
}
