package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

const sourceColumns = `id, source_type, file_path, file_hash, items_count, last_processed,
	processing_status, error_message, metadata, created_at`

// SaveSource upserts the ledger row for source.FilePath.
func (s *Store) SaveSource(ctx context.Context, source *domain.Source) error {
	now := time.Now().UTC()
	if source.LastProcessed.IsZero() {
		source.LastProcessed = now
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	if source.ProcessingStatus == "" {
		source.ProcessingStatus = domain.ProcessingSuccess
	}

	meta := source.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metadataJSON, err := encodeJSON(meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (source_type, file_path, file_hash, items_count, last_processed,
			processing_status, error_message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			source_type = excluded.source_type,
			file_hash = excluded.file_hash,
			items_count = excluded.items_count,
			last_processed = excluded.last_processed,
			processing_status = excluded.processing_status,
			error_message = excluded.error_message,
			metadata = excluded.metadata
	`, source.SourceType, source.FilePath, source.FileHash, source.ItemsCount, source.LastProcessed,
		source.ProcessingStatus, nullString(source.ErrorMessage), metadataJSON, source.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// GetSourceByPath retrieves the ledger row for a file.
func (s *Store) GetSourceByPath(ctx context.Context, path string) (*domain.Source, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sourceColumns+" FROM sources WHERE file_path = ?", path)
	source, err := scanSource(row)
	if err != nil {
		return nil, notFound(err)
	}
	return source, nil
}

// ListSources returns every ledger row ordered by path.
func (s *Store) ListSources(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sourceColumns+" FROM sources ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var source domain.Source
	var errorMessage, metadata sql.NullString
	var lastProcessed, createdAt sql.NullTime

	if err := row.Scan(&source.ID, &source.SourceType, &source.FilePath, &source.FileHash,
		&source.ItemsCount, &lastProcessed, &source.ProcessingStatus, &errorMessage,
		&metadata, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}

	source.ErrorMessage = errorMessage.String
	if lastProcessed.Valid {
		source.LastProcessed = lastProcessed.Time
	}
	if createdAt.Valid {
		source.CreatedAt = createdAt.Time
	}
	if err := decodeJSON(metadata, &source.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	return &source, nil
}
