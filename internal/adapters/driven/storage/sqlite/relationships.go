package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// SaveRelationship inserts the link, ignoring an existing identical triple.
func (s *Store) SaveRelationship(ctx context.Context, rel domain.Relationship) error {
	if !rel.Type.IsValid() {
		return fmt.Errorf("%w: relationship type %q", domain.ErrInvalidInput, rel.Type)
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relationships (item_id_1, item_id_2, relationship_type, similarity_score, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id_1, item_id_2, relationship_type) DO NOTHING
	`, rel.ItemID1, rel.ItemID2, rel.Type, nullFloat64(rel.SimilarityScore),
		nullString(rel.Reason), rel.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	return nil
}

// GetRelatedItems returns links in either direction, seen from id.
func (s *Store) GetRelatedItems(ctx context.Context, id int64) ([]domain.RelatedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id_2 AS related_id, relationship_type, similarity_score
		FROM relationships
		WHERE item_id_1 = ?
		UNION
		SELECT item_id_1 AS related_id, relationship_type, similarity_score
		FROM relationships
		WHERE item_id_2 = ?
		ORDER BY related_id
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var related []domain.RelatedItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.RelatedItem
		var score sql.NullFloat64
		if err := rows.Scan(&r.ItemID, &r.Type, &score); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		if score.Valid {
			r.SimilarityScore = domain.Float64Ptr(score.Float64)
		}
		related = append(related, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}

	return related, nil
}
