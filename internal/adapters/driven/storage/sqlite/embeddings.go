package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// SaveEmbedding stores the vector for (itemID, model), replacing any previous one.
func (s *Store) SaveEmbedding(ctx context.Context, itemID int64, vector []float32, model string) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (item_id, embedding, model_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id, model_name) DO UPDATE SET
			embedding = excluded.embedding,
			created_at = excluded.created_at
	`, itemID, float32SliceToBytes(vector), model, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the vector for (itemID, model).
func (s *Store) GetEmbedding(ctx context.Context, itemID int64, model string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT embedding FROM embeddings WHERE item_id = ? AND model_name = ?",
		itemID, model).Scan(&blob)
	if err != nil {
		return nil, notFound(err)
	}
	return bytesToFloat32Slice(blob), nil
}

// GetAllEmbeddings returns every vector for the model keyed by item id.
func (s *Store) GetAllEmbeddings(ctx context.Context, model string) (map[int64][]float32, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, embedding FROM embeddings WHERE model_name = ?", model)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make(map[int64][]float32)
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vectors[id] = bytesToFloat32Slice(blob)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return vectors, nil
}
