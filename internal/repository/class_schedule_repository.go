package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

// ClassScheduleRepository manages the class-view projection of the live timetable.
type ClassScheduleRepository struct {
	db *sqlx.DB
}

// NewClassScheduleRepository constructs the repository.
func NewClassScheduleRepository(db *sqlx.DB) *ClassScheduleRepository {
	return &ClassScheduleRepository{db: db}
}

func (r *ClassScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListBySections returns the live class-view rows for the given sections.
func (r *ClassScheduleRepository) ListBySections(ctx context.Context, termID string, sectionIDs []string) ([]models.ClassScheduleEntry, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, term_id, section_id, day_of_week, slot, subject_id, teacher_id, room_id, created_at
FROM class_schedule_entries WHERE term_id = ? AND section_id IN (?) ORDER BY section_id, day_of_week, slot`, termID, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("build class schedule query: %w", err)
	}
	query = r.db.Rebind(query)
	var entries []models.ClassScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list class schedule entries: %w", err)
	}
	return entries, nil
}

// DeleteBySections removes live class-view rows for the given sections.
// Runs inside the Apply or Rollback transaction.
func (r *ClassScheduleRepository) DeleteBySections(ctx context.Context, exec sqlx.ExtContext, termID string, sectionIDs []string) (int64, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}
	target := r.exec(exec)
	query, args, err := sqlx.In(`DELETE FROM class_schedule_entries WHERE term_id = ? AND section_id IN (?)`, termID, sectionIDs)
	if err != nil {
		return 0, fmt.Errorf("build class schedule delete: %w", err)
	}
	query = target.Rebind(query)
	result, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete class schedule entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("class schedule rows affected: %w", err)
	}
	return affected, nil
}

// BulkInsert writes class-view rows. Runs inside the Apply or Rollback transaction.
func (r *ClassScheduleRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.ClassScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].CreatedAt = now
	}
	const query = `
INSERT INTO class_schedule_entries (id, term_id, section_id, day_of_week, slot, subject_id, teacher_id, room_id, created_at)
VALUES (:id, :term_id, :section_id, :day_of_week, :slot, :subject_id, :teacher_id, :room_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, entries); err != nil {
		return fmt.Errorf("insert class schedule entries: %w", err)
	}
	return nil
}
