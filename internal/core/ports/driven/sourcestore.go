package driven

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// SourceStore persists the per-file processing ledger.
type SourceStore interface {
	// SaveSource upserts the source keyed on FilePath.
	SaveSource(ctx context.Context, source *domain.Source) error

	// GetSourceByPath returns domain.ErrNotFound when the file was never processed.
	GetSourceByPath(ctx context.Context, path string) (*domain.Source, error)

	// ListSources returns all sources ordered by path.
	ListSources(ctx context.Context) ([]domain.Source, error)
}
