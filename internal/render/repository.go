package render

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sceneforge/sceneforge-core/internal/infrastructure/database"
)

// BatchSummary is the persisted batch-level record.
type BatchSummary struct {
	ID                    string    `json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	CompletedAt           time.Time `json:"completed_at"`
	SceneCount            int       `json:"scene_count"`
	SuccessCount          int       `json:"success_count"`
	TotalRenderedDuration float64   `json:"total_rendered_duration"`
	CommonResolution      string    `json:"common_resolution,omitempty"`
}

// Repository persists batch results and outcomes to SQLite.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository backed by db.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// SaveBatch stores a batch result and all its outcomes in one transaction.
func (r *Repository) SaveBatch(ctx context.Context, result BatchResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // No-op if committed

	_, err = tx.ExecContext(ctx,
		`INSERT INTO render_batches (id, created_at, completed_at, scene_count, success_count, total_duration_seconds, resolution)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.BatchID,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.CompletedAt.UTC().Format(time.RFC3339Nano),
		result.SceneCount(),
		result.SuccessCount(),
		result.TotalRenderedDuration,
		result.CommonResolution,
	)
	if err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, outcome := range result.Outcomes {
		logs, err := json.Marshal(outcome.CapturedLogs)
		if err != nil {
			return fmt.Errorf("encoding captured logs: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO render_outcomes (batch_id, scene_id, framework, template_id, success, output_path, resolution, file_size_bytes, render_duration_seconds, attempts, error_detail, captured_logs, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.BatchID,
			outcome.SceneID,
			string(outcome.Framework),
			outcome.TemplateID,
			outcome.Success,
			outcome.OutputPath,
			outcome.Resolution,
			outcome.FileSizeBytes,
			outcome.RenderDurationSeconds,
			outcome.Attempts,
			outcome.ErrorDetail,
			string(logs),
			now,
		)
		if err != nil {
			return fmt.Errorf("inserting outcome %s: %w", outcome.SceneID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a batch summary by ID.
//
// Returns:
//   - *BatchSummary: The batch record
//   - error: ErrBatchNotFound if no such batch exists
func (r *Repository) GetBatch(ctx context.Context, id string) (*BatchSummary, error) {
	var (
		summary     BatchSummary
		createdAt   string
		completedAt sql.NullString
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, completed_at, scene_count, success_count, total_duration_seconds, resolution
		 FROM render_batches WHERE id = ?`, id,
	).Scan(
		&summary.ID,
		&createdAt,
		&completedAt,
		&summary.SceneCount,
		&summary.SuccessCount,
		&summary.TotalRenderedDuration,
		&summary.CommonResolution,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying batch: %w", err)
	}

	summary.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if completedAt.Valid {
		summary.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt.String)
	}
	return &summary, nil
}

// ListBatches returns the most recent batches, newest first.
func (r *Repository) ListBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, completed_at, scene_count, success_count, total_duration_seconds, resolution
		 FROM render_batches ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var summaries []BatchSummary
	for rows.Next() {
		var (
			summary     BatchSummary
			createdAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(
			&summary.ID,
			&createdAt,
			&completedAt,
			&summary.SceneCount,
			&summary.SuccessCount,
			&summary.TotalRenderedDuration,
			&summary.CommonResolution,
		); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		summary.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if completedAt.Valid {
			summary.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt.String)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batches: %w", err)
	}
	return summaries, nil
}

// ListOutcomes returns the outcomes of one batch in insertion order.
//
// Returns ErrBatchNotFound when the batch does not exist.
func (r *Repository) ListOutcomes(ctx context.Context, batchID string) ([]RenderOutcome, error) {
	// Distinguish "no outcomes" from "no such batch".
	if _, err := r.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT scene_id, framework, template_id, success, output_path, resolution, file_size_bytes, render_duration_seconds, attempts, error_detail, captured_logs
		 FROM render_outcomes WHERE batch_id = ? ORDER BY rowid`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var outcomes []RenderOutcome
	for rows.Next() {
		var (
			outcome   RenderOutcome
			framework string
			logs      string
		)
		if err := rows.Scan(
			&outcome.SceneID,
			&framework,
			&outcome.TemplateID,
			&outcome.Success,
			&outcome.OutputPath,
			&outcome.Resolution,
			&outcome.FileSizeBytes,
			&outcome.RenderDurationSeconds,
			&outcome.Attempts,
			&outcome.ErrorDetail,
			&logs,
		); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		outcome.Framework = Framework(framework)
		if err := json.Unmarshal([]byte(logs), &outcome.CapturedLogs); err != nil {
			return nil, fmt.Errorf("decoding captured logs: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcomes: %w", err)
	}
	return outcomes, nil
}
