package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Stats returns aggregate counts over items, sources and relationships.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&stats.TotalItems); err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&stats.TotalSources); err != nil {
		return nil, fmt.Errorf("counting sources: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships").Scan(&stats.TotalRelationships); err != nil {
		return nil, fmt.Errorf("counting relationships: %w", err)
	}

	var err error
	if stats.ByType, err = s.countBy(ctx, "type"); err != nil {
		return nil, err
	}
	if stats.ByPriority, err = s.countBy(ctx, "priority"); err != nil {
		return nil, err
	}
	if stats.ByStatus, err = s.countBy(ctx, "status"); err != nil {
		return nil, err
	}

	return stats, nil
}

// countBy groups items by a trusted column name.
func (s *Store) countBy(ctx context.Context, column string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM items GROUP BY "+column) //nolint:gosec // column is a constant
	if err != nil {
		return nil, fmt.Errorf("counting by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scanning %s count: %w", column, err)
		}
		counts[key] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s counts: %w", column, err)
	}

	return counts, nil
}
