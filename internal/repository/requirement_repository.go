package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

// RequirementRepository reads the constraint-model rows that drive generation:
// subject period requirements, teacher availability, eligibility, and rooms.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs the repository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// ListBySections returns the period requirements for the given sections.
func (r *RequirementRepository) ListBySections(ctx context.Context, sectionIDs []string) ([]models.SubjectPeriodRequirement, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, section_id, subject_id, periods_per_week, max_consecutive, room_type, created_at, updated_at
FROM subject_period_requirements WHERE section_id IN (?) ORDER BY section_id, subject_id`, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("build requirement query: %w", err)
	}
	query = r.db.Rebind(query)
	var requirements []models.SubjectPeriodRequirement
	if err := r.db.SelectContext(ctx, &requirements, query, args...); err != nil {
		return nil, fmt.Errorf("list subject period requirements: %w", err)
	}
	return requirements, nil
}

// ListEligibilitiesBySections returns who may teach what for the given sections.
func (r *RequirementRepository) ListEligibilitiesBySections(ctx context.Context, sectionIDs []string) ([]models.TeacherEligibility, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, teacher_id, subject_id, section_id, priority, created_at
FROM teacher_eligibilities WHERE section_id IN (?) ORDER BY section_id, subject_id, priority`, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("build eligibility query: %w", err)
	}
	query = r.db.Rebind(query)
	var eligibilities []models.TeacherEligibility
	if err := r.db.SelectContext(ctx, &eligibilities, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher eligibilities: %w", err)
	}
	return eligibilities, nil
}

// ListUnavailabilitiesByTeachers returns blocked (day, slot) cells per teacher.
func (r *RequirementRepository) ListUnavailabilitiesByTeachers(ctx context.Context, teacherIDs []string) ([]models.TeacherUnavailability, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, teacher_id, day_of_week, slot, reason, created_at
FROM teacher_unavailabilities WHERE teacher_id IN (?) ORDER BY teacher_id, day_of_week, slot`, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("build unavailability query: %w", err)
	}
	query = r.db.Rebind(query)
	var unavailabilities []models.TeacherUnavailability
	if err := r.db.SelectContext(ctx, &unavailabilities, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher unavailabilities: %w", err)
	}
	return unavailabilities, nil
}

// ListActiveRooms returns all rooms generation may book.
func (r *RequirementRepository) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, type, capacity, active, created_at FROM rooms WHERE active = true ORDER BY type, capacity`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListTeachingSlots returns the active teaching slots ordered by position in the day.
// Break slots never receive assignments and are excluded here.
func (r *RequirementRepository) ListTeachingSlots(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, ordinal, start_time, end_time, kind, active, created_at
FROM time_slots WHERE active = true AND kind = $1 ORDER BY ordinal`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, models.TimeSlotTeaching); err != nil {
		return nil, fmt.Errorf("list teaching slots: %w", err)
	}
	return slots, nil
}
