package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
)

// Shared in-memory fakes for the service tests.

type fakeSectionReader struct {
	sections []models.Section
	subjects []models.Subject
	teachers []models.Teacher
}

func (f *fakeSectionReader) ListByIDs(_ context.Context, termID string, ids []string) ([]models.Section, error) {
	var out []models.Section
	for _, s := range f.sections {
		if s.TermID != termID {
			continue
		}
		for _, id := range ids {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (f *fakeSectionReader) ListSubjects(context.Context, []string) ([]models.Subject, error) {
	return f.subjects, nil
}

func (f *fakeSectionReader) ListTeachers(context.Context, []string) ([]models.Teacher, error) {
	return f.teachers, nil
}

type fakeConstraintReader struct {
	requirements     []models.SubjectPeriodRequirement
	eligibilities    []models.TeacherEligibility
	unavailabilities []models.TeacherUnavailability
	rooms            []models.Room
	slots            []models.TimeSlot
}

func (f *fakeConstraintReader) ListBySections(context.Context, []string) ([]models.SubjectPeriodRequirement, error) {
	return f.requirements, nil
}

func (f *fakeConstraintReader) ListEligibilitiesBySections(context.Context, []string) ([]models.TeacherEligibility, error) {
	return f.eligibilities, nil
}

func (f *fakeConstraintReader) ListUnavailabilitiesByTeachers(context.Context, []string) ([]models.TeacherUnavailability, error) {
	return f.unavailabilities, nil
}

func (f *fakeConstraintReader) ListActiveRooms(context.Context) ([]models.Room, error) {
	return f.rooms, nil
}

func (f *fakeConstraintReader) ListTeachingSlots(context.Context) ([]models.TimeSlot, error) {
	return f.slots, nil
}

type fakeRunStore struct {
	mu   sync.Mutex
	runs map[string]*models.GenerationRun
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: make(map[string]*models.GenerationRun)}
}

func (f *fakeRunStore) Create(_ context.Context, run *models.GenerationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dup := *run
	f.runs[run.ID] = &dup
	return nil
}

func (f *fakeRunStore) FindByID(_ context.Context, id string) (*models.GenerationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	dup := *run
	return &dup, nil
}

func (f *fakeRunStore) ListByTerm(_ context.Context, termID string) ([]models.GenerationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GenerationRun
	for _, run := range f.runs {
		if run.TermID == termID {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (f *fakeRunStore) ListByTermAndStatus(_ context.Context, termID string, status models.GenerationRunStatus) ([]models.GenerationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GenerationRun
	for _, run := range f.runs {
		if run.TermID == termID && run.Status == status {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (f *fakeRunStore) SetRunning(_ context.Context, id string) error {
	return f.update(id, func(run *models.GenerationRun) {
		run.Status = models.RunStatusRunning
	})
}

func (f *fakeRunStore) SetCompleted(_ context.Context, id string, fitness float64, schedule, stats types.JSONText) error {
	return f.update(id, func(run *models.GenerationRun) {
		run.Status = models.RunStatusCompleted
		run.Fitness = fitness
		run.Schedule = schedule
		run.Stats = stats
	})
}

func (f *fakeRunStore) SetFailed(_ context.Context, id string, detail types.JSONText) error {
	return f.update(id, func(run *models.GenerationRun) {
		run.Status = models.RunStatusFailed
		run.ErrorDetail = detail
	})
}

func (f *fakeRunStore) SetApplied(_ context.Context, _ sqlx.ExtContext, id string, snapshot types.JSONText) error {
	return f.update(id, func(run *models.GenerationRun) {
		run.Status = models.RunStatusApplied
		run.Snapshot = snapshot
		now := time.Now().UTC()
		run.AppliedAt = &now
	})
}

func (f *fakeRunStore) SetRolledBack(_ context.Context, _ sqlx.ExtContext, id string) error {
	return f.update(id, func(run *models.GenerationRun) {
		run.Status = models.RunStatusRolledBack
		now := time.Now().UTC()
		run.RolledBackAt = &now
	})
}

func (f *fakeRunStore) update(id string, apply func(*models.GenerationRun)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return sql.ErrNoRows
	}
	apply(run)
	return nil
}

type fakeClassStore struct {
	mu      sync.Mutex
	entries []models.ClassScheduleEntry
}

func (f *fakeClassStore) ListBySections(_ context.Context, termID string, sectionIDs []string) ([]models.ClassScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		scope[id] = true
	}
	var out []models.ClassScheduleEntry
	for _, e := range f.entries {
		if e.TermID == termID && scope[e.SectionID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeClassStore) DeleteBySections(_ context.Context, _ sqlx.ExtContext, termID string, sectionIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		scope[id] = true
	}
	var kept []models.ClassScheduleEntry
	var removed int64
	for _, e := range f.entries {
		if e.TermID == termID && scope[e.SectionID] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return removed, nil
}

func (f *fakeClassStore) BulkInsert(_ context.Context, _ sqlx.ExtContext, entries []models.ClassScheduleEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

type fakeTeacherStore struct {
	mu      sync.Mutex
	entries []models.TeacherScheduleEntry
}

func (f *fakeTeacherStore) DeleteBySections(_ context.Context, _ sqlx.ExtContext, termID string, sectionIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		scope[id] = true
	}
	var kept []models.TeacherScheduleEntry
	var removed int64
	for _, e := range f.entries {
		if e.TermID == termID && scope[e.SectionID] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return removed, nil
}

func (f *fakeTeacherStore) BulkInsert(_ context.Context, _ sqlx.ExtContext, entries []models.TeacherScheduleEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	return nil
}

func (f *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, pattern)
	return nil
}
