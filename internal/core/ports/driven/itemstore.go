package driven

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// ItemStore persists extracted items.
type ItemStore interface {
	// SaveItem inserts the item and returns the assigned id.
	// The id is also written back to item.ID.
	SaveItem(ctx context.Context, item *domain.Item) (int64, error)

	// UpdateItem overwrites every column of an existing item.
	// Returns domain.ErrInvalidInput when the item has no id.
	UpdateItem(ctx context.Context, item *domain.Item) error

	// GetItem returns domain.ErrNotFound for unknown ids.
	GetItem(ctx context.Context, id int64) (*domain.Item, error)

	// GetItems returns items matching the filter, ordered by priority score
	// descending, then creation time descending, then insertion order.
	GetItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)

	// MarkDuplicate flags id as a duplicate of canonicalID in one statement.
	MarkDuplicate(ctx context.Context, id, canonicalID int64) error
}

// RelationshipStore persists links between items.
type RelationshipStore interface {
	// SaveRelationship inserts the link. An existing identical triple is left untouched.
	SaveRelationship(ctx context.Context, rel domain.Relationship) error

	// GetRelatedItems returns links touching id, seen from id.
	GetRelatedItems(ctx context.Context, id int64) ([]domain.RelatedItem, error)
}

// EmbeddingStore persists item embeddings keyed by (item, model).
type EmbeddingStore interface {
	// SaveEmbedding stores the vector. A later save for the same key replaces it.
	SaveEmbedding(ctx context.Context, itemID int64, vector []float32, model string) error

	// GetEmbedding returns domain.ErrNotFound when no vector exists.
	GetEmbedding(ctx context.Context, itemID int64, model string) ([]float32, error)

	// GetAllEmbeddings returns every vector for the model keyed by item id.
	GetAllEmbeddings(ctx context.Context, model string) (map[int64][]float32, error)
}

// RunStore records extraction runs for auditing.
type RunStore interface {
	// StartRun inserts a running row and assigns run.ID.
	StartRun(ctx context.Context, run *domain.ExtractionRun) error

	// FinishRun records the final status, counts and duration.
	FinishRun(ctx context.Context, run *domain.ExtractionRun) error
}

// Store is the full persistence contract shared by the analysis passes.
// There is a single writer at a time.
type Store interface {
	ItemStore
	SourceStore
	RelationshipStore
	EmbeddingStore
	RunStore

	// Stats returns aggregate counts.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Vacuum reclaims free pages.
	Vacuum(ctx context.Context) error

	// Backup writes a consistent copy of the database to destPath.
	Backup(ctx context.Context, destPath string) error

	// Close releases resources.
	Close() error
}
