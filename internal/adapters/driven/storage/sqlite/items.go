package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// itemColumns is the column list shared by every item query.
const itemColumns = `id, type, description, priority, priority_score, source_context, confidence,
	status, source_type, source_file, source_line, extracted_at, tags, entities, metadata,
	is_duplicate, duplicate_of, embedding_hash, created_at, updated_at`

// SaveItem inserts the item and assigns its id.
func (s *Store) SaveItem(ctx context.Context, item *domain.Item) (int64, error) {
	now := time.Now().UTC()
	if item.ExtractedAt.IsZero() {
		item.ExtractedAt = now
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = domain.StatusOpen
	}

	tags, entities, metadata, err := encodeItemJSON(item)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (type, description, priority, priority_score, source_context, confidence,
			status, source_type, source_file, source_line, extracted_at, tags, entities, metadata,
			is_duplicate, duplicate_of, embedding_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.Type, item.Description, item.Priority, item.PriorityScore, item.SourceContext,
		item.Confidence, item.Status, item.SourceType, item.SourceFile, nullInt(item.SourceLine),
		item.ExtractedAt, tags, entities, metadata, item.IsDuplicate, nullInt64(item.DuplicateOf),
		nullString(item.EmbeddingHash), item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("saving item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading item id: %w", err)
	}
	item.ID = id
	return id, nil
}

// UpdateItem overwrites every column of an existing item.
func (s *Store) UpdateItem(ctx context.Context, item *domain.Item) error {
	if !item.HasID() {
		return fmt.Errorf("%w: item must have an id to update", domain.ErrInvalidInput)
	}

	item.UpdatedAt = time.Now().UTC()

	tags, entities, metadata, err := encodeItemJSON(item)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET
			type = ?, description = ?, priority = ?, priority_score = ?, source_context = ?,
			confidence = ?, status = ?, source_type = ?, source_file = ?, source_line = ?,
			extracted_at = ?, tags = ?, entities = ?, metadata = ?, is_duplicate = ?,
			duplicate_of = ?, embedding_hash = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`, item.Type, item.Description, item.Priority, item.PriorityScore, item.SourceContext,
		item.Confidence, item.Status, item.SourceType, item.SourceFile, nullInt(item.SourceLine),
		item.ExtractedAt, tags, entities, metadata, item.IsDuplicate, nullInt64(item.DuplicateOf),
		nullString(item.EmbeddingHash), item.CreatedAt, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetItem retrieves an item by id.
func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	item, err := scanItem(row)
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

// GetItems returns items matching the filter.
func (s *Store) GetItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	var conditions []string
	var args []any

	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.SourceFile != "" {
		conditions = append(conditions, "source_file = ?")
		args = append(args, filter.SourceFile)
	}
	if filter.ExcludeDuplicates {
		conditions = append(conditions, "is_duplicate = 0")
	}

	query := "SELECT " + itemColumns + " FROM items"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY priority_score DESC, created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item //nolint:prealloc // size unknown from query
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return items, nil
}

// MarkDuplicate flags id as a duplicate of canonicalID.
func (s *Store) MarkDuplicate(ctx context.Context, id, canonicalID int64) error {
	if id == canonicalID {
		return fmt.Errorf("%w: item %d cannot duplicate itself", domain.ErrInvalidInput, id)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET is_duplicate = 1, duplicate_of = ?, status = 'duplicate'
		WHERE id = ?
	`, canonicalID, id)
	if err != nil {
		return fmt.Errorf("marking duplicate: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking duplicate: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	var sourceContext, tags, entities, metadata, embeddingHash sql.NullString
	var sourceLine, duplicateOf sql.NullInt64
	var extractedAt, createdAt, updatedAt sql.NullTime

	if err := row.Scan(&item.ID, &item.Type, &item.Description, &item.Priority, &item.PriorityScore,
		&sourceContext, &item.Confidence, &item.Status, &item.SourceType, &item.SourceFile,
		&sourceLine, &extractedAt, &tags, &entities, &metadata, &item.IsDuplicate, &duplicateOf,
		&embeddingHash, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning item: %w", err)
	}

	item.SourceContext = sourceContext.String
	item.EmbeddingHash = embeddingHash.String
	if sourceLine.Valid {
		line := int(sourceLine.Int64)
		item.SourceLine = &line
	}
	if duplicateOf.Valid {
		ref := duplicateOf.Int64
		item.DuplicateOf = &ref
	}
	if extractedAt.Valid {
		item.ExtractedAt = extractedAt.Time
	}
	if createdAt.Valid {
		item.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		item.UpdatedAt = updatedAt.Time
	}

	if err := decodeJSON(tags, &item.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if err := decodeJSON(entities, &item.Entities); err != nil {
		return nil, fmt.Errorf("unmarshaling entities: %w", err)
	}
	if err := decodeJSON(metadata, &item.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	return &item, nil
}

func encodeItemJSON(item *domain.Item) (tags, entities, metadata string, err error) {
	tagsList := item.Tags
	if tagsList == nil {
		tagsList = []string{}
	}
	if tags, err = encodeJSON(tagsList); err != nil {
		return "", "", "", fmt.Errorf("marshalling tags: %w", err)
	}
	entityMap := item.Entities
	if entityMap == nil {
		entityMap = domain.Entities{}
	}
	if entities, err = encodeJSON(entityMap); err != nil {
		return "", "", "", fmt.Errorf("marshalling entities: %w", err)
	}
	meta := item.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	if metadata, err = encodeJSON(meta); err != nil {
		return "", "", "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return tags, entities, metadata, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeJSON leaves dest untouched for NULL or empty columns.
func decodeJSON(col sql.NullString, dest any) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dest)
}
