package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

// TeacherScheduleRepository manages the teacher-view projection of the live timetable.
// Rows here are always derived from the class view; Apply and Rollback rebuild them.
type TeacherScheduleRepository struct {
	db *sqlx.DB
}

// NewTeacherScheduleRepository constructs the repository.
func NewTeacherScheduleRepository(db *sqlx.DB) *TeacherScheduleRepository {
	return &TeacherScheduleRepository{db: db}
}

func (r *TeacherScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByTeacher returns a teacher's live schedule for a term.
func (r *TeacherScheduleRepository) ListByTeacher(ctx context.Context, termID, teacherID string) ([]models.TeacherScheduleEntry, error) {
	const query = `SELECT id, term_id, teacher_id, section_id, day_of_week, slot, subject_id, room_id, created_at
FROM teacher_schedule_entries WHERE term_id = $1 AND teacher_id = $2 ORDER BY day_of_week, slot`
	var entries []models.TeacherScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, termID, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher schedule entries: %w", err)
	}
	return entries, nil
}

// DeleteBySections removes teacher-view rows derived from the given sections.
// Runs inside the Apply or Rollback transaction.
func (r *TeacherScheduleRepository) DeleteBySections(ctx context.Context, exec sqlx.ExtContext, termID string, sectionIDs []string) (int64, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}
	target := r.exec(exec)
	query, args, err := sqlx.In(`DELETE FROM teacher_schedule_entries WHERE term_id = ? AND section_id IN (?)`, termID, sectionIDs)
	if err != nil {
		return 0, fmt.Errorf("build teacher schedule delete: %w", err)
	}
	query = target.Rebind(query)
	result, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete teacher schedule entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("teacher schedule rows affected: %w", err)
	}
	return affected, nil
}

// BulkInsert writes teacher-view rows. Runs inside the Apply or Rollback transaction.
func (r *TeacherScheduleRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.TeacherScheduleEntry) error {
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
INSERT INTO teacher_schedule_entries (id, term_id, teacher_id, section_id, day_of_week, slot, subject_id, room_id, created_at)
VALUES (:id, :term_id, :teacher_id, :section_id, :day_of_week, :slot, :subject_id, :room_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, entries); err != nil {
		return fmt.Errorf("insert teacher schedule entries: %w", err)
	}
	return nil
}
