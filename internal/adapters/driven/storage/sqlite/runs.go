package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// StartRun inserts a running row. A RunID is generated when empty.
func (s *Store) StartRun(ctx context.Context, run *domain.ExtractionRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = domain.RunStatusRunning

	config := run.Config
	if config == nil {
		config = map[string]any{}
	}
	configJSON, err := encodeJSON(config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction_runs (run_uuid, model_name, prompt_version, status, config, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.RunID, run.ModelName, run.PromptVersion, run.Status, configJSON, run.StartedAt)
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	return nil
}

// FinishRun records the final state of a run. Status defaults to completed.
func (s *Store) FinishRun(ctx context.Context, run *domain.ExtractionRun) error {
	if run.ID == 0 {
		return fmt.Errorf("%w: run was never started", domain.ErrInvalidInput)
	}
	if run.Status == "" || run.Status == domain.RunStatusRunning {
		run.Status = domain.RunStatusCompleted
	}
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	if run.Duration == 0 {
		run.Duration = completed.Sub(run.StartedAt)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE extraction_runs SET
			sources_processed = ?, items_extracted = ?, duration_seconds = ?,
			status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, run.SourcesProcessed, run.ItemsExtracted, run.Duration.Seconds(),
		run.Status, nullString(run.ErrorMessage), completed, run.ID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// getRun loads a run by id.
func (s *Store) getRun(ctx context.Context, id int64) (*domain.ExtractionRun, error) {
	var run domain.ExtractionRun
	var duration sql.NullFloat64
	var errorMessage, config sql.NullString
	var startedAt, completedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_uuid, model_name, prompt_version, sources_processed, items_extracted,
			duration_seconds, status, error_message, config, started_at, completed_at
		FROM extraction_runs WHERE id = ?
	`, id).Scan(&run.ID, &run.RunID, &run.ModelName, &run.PromptVersion, &run.SourcesProcessed,
		&run.ItemsExtracted, &duration, &run.Status, &errorMessage, &config, &startedAt, &completedAt)
	if err != nil {
		return nil, notFound(err)
	}

	run.ErrorMessage = errorMessage.String
	if duration.Valid {
		run.Duration = time.Duration(duration.Float64 * float64(time.Second))
	}
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if err := decodeJSON(config, &run.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &run, nil
}
