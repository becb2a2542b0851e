package driving

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// ItemService provides read access to stored items.
type ItemService interface {
	// Get returns a single item.
	Get(ctx context.Context, id int64) (*domain.Item, error)

	// List returns items matching the filter.
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)

	// Related returns the items linked to id, resolved to full items.
	Related(ctx context.Context, id int64) ([]RelatedItem, error)

	// Stats returns aggregate counts.
	Stats(ctx context.Context) (*domain.Stats, error)
}

// RelatedItem is a linked item together with how it is linked.
type RelatedItem struct {
	Item            domain.Item
	Type            domain.RelationshipType
	SimilarityScore *float64
}
