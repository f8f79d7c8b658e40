package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

// GenerationRunRepository persists timetable generation runs.
type GenerationRunRepository struct {
	db *sqlx.DB
}

// NewGenerationRunRepository constructs the repository.
func NewGenerationRunRepository(db *sqlx.DB) *GenerationRunRepository {
	return &GenerationRunRepository{db: db}
}

func (r *GenerationRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run in its initial state.
func (r *GenerationRunRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.TermID == "" {
		return fmt.Errorf("term_id is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunStatusDraft
	}
	if len(run.SectionIDs) == 0 {
		run.SectionIDs = types.JSONText(`[]`)
	}
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	const query = `
INSERT INTO generation_runs (id, term_id, section_ids, status, fitness, schedule, snapshot, stats, error_detail, created_at, updated_at)
VALUES (:id, :term_id, :section_ids, :status, :fitness, :schedule, :snapshot, :stats, :error_detail, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, run); err != nil {
		return fmt.Errorf("insert generation run: %w", err)
	}
	return nil
}

// FindByID loads a run by its identifier.
func (r *GenerationRunRepository) FindByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	const query = `SELECT id, term_id, section_ids, status, fitness, schedule, snapshot, stats, error_detail, created_at, updated_at, applied_at, rolled_back_at
FROM generation_runs WHERE id = $1`
	var run models.GenerationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByTerm returns runs for a term, newest first.
func (r *GenerationRunRepository) ListByTerm(ctx context.Context, termID string) ([]models.GenerationRun, error) {
	const query = `SELECT id, term_id, section_ids, status, fitness, schedule, snapshot, stats, error_detail, created_at, updated_at, applied_at, rolled_back_at
FROM generation_runs WHERE term_id = $1 ORDER BY created_at DESC`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, termID); err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, nil
}

// ListByTermAndStatus returns runs for a term in the given state.
func (r *GenerationRunRepository) ListByTermAndStatus(ctx context.Context, termID string, status models.GenerationRunStatus) ([]models.GenerationRun, error) {
	const query = `SELECT id, term_id, section_ids, status, fitness, schedule, snapshot, stats, error_detail, created_at, updated_at, applied_at, rolled_back_at
FROM generation_runs WHERE term_id = $1 AND status = $2 ORDER BY created_at DESC`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, termID, status); err != nil {
		return nil, fmt.Errorf("list generation runs by status: %w", err)
	}
	return runs, nil
}

// SetRunning transitions a draft run into the running state.
func (r *GenerationRunRepository) SetRunning(ctx context.Context, id string) error {
	const query = `UPDATE generation_runs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return r.transition(ctx, query, models.RunStatusRunning, time.Now().UTC(), id, models.RunStatusDraft)
}

// SetCompleted stores the winning schedule on a running run.
func (r *GenerationRunRepository) SetCompleted(ctx context.Context, id string, fitness float64, schedule, stats types.JSONText) error {
	const query = `UPDATE generation_runs SET status = $1, fitness = $2, schedule = $3, stats = $4, updated_at = $5 WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query, models.RunStatusCompleted, fitness, schedule, stats, time.Now().UTC(), id, models.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("complete generation run: %w", err)
	}
	return requireAffected(result)
}

// SetFailed records the failure diagnostic on a run.
func (r *GenerationRunRepository) SetFailed(ctx context.Context, id string, errorDetail types.JSONText) error {
	const query = `UPDATE generation_runs SET status = $1, error_detail = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, models.RunStatusFailed, errorDetail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("fail generation run: %w", err)
	}
	return requireAffected(result)
}

// SetApplied stores the rollback snapshot and marks the run applied.
// Runs inside the Apply transaction.
func (r *GenerationRunRepository) SetApplied(ctx context.Context, exec sqlx.ExtContext, id string, snapshot types.JSONText) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `UPDATE generation_runs SET status = $1, snapshot = $2, applied_at = $3, updated_at = $4 WHERE id = $5 AND status = $6`
	result, err := target.ExecContext(ctx, query, models.RunStatusApplied, snapshot, now, now, id, models.RunStatusCompleted)
	if err != nil {
		return fmt.Errorf("mark generation run applied: %w", err)
	}
	return requireAffected(result)
}

// SetRolledBack clears the applied state. Runs inside the Rollback transaction.
func (r *GenerationRunRepository) SetRolledBack(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `UPDATE generation_runs SET status = $1, rolled_back_at = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := target.ExecContext(ctx, query, models.RunStatusRolledBack, now, now, id, models.RunStatusApplied)
	if err != nil {
		return fmt.Errorf("mark generation run rolled back: %w", err)
	}
	return requireAffected(result)
}

func (r *GenerationRunRepository) transition(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition generation run: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("generation run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
