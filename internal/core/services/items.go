package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// Ensure ItemService implements the interface.
var _ driving.ItemService = (*ItemService)(nil)

// ItemService provides read access to stored items.
type ItemService struct {
	store driven.Store
}

// NewItemService creates a new item service.
func NewItemService(store driven.Store) *ItemService {
	return &ItemService{store: store}
}

// Get returns a single item.
func (s *ItemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: item id must be positive", domain.ErrInvalidInput)
	}
	return s.store.GetItem(ctx, id)
}

// List returns items matching the filter.
func (s *ItemService) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidInput, filter.Type)
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, filter.Priority)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	return s.store.GetItems(ctx, filter)
}

// Related resolves the links of id to full items. Links to items that no
// longer exist are skipped.
func (s *ItemService) Related(ctx context.Context, id int64) ([]driving.RelatedItem, error) {
	links, err := s.store.GetRelatedItems(ctx, id)
	if err != nil {
		return nil, err
	}

	related := make([]driving.RelatedItem, 0, len(links))
	for _, link := range links {
		item, err := s.store.GetItem(ctx, link.ItemID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Skipping dangling link %d -> %d", id, link.ItemID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get related item %d: %w", link.ItemID, err)
		}
		related = append(related, driving.RelatedItem{
			Item:            *item,
			Type:            link.Type,
			SimilarityScore: link.SimilarityScore,
		})
	}
	return related, nil
}

// Stats returns aggregate counts.
func (s *ItemService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats(ctx)
}
