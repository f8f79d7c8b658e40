package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
)

type appliedRunStore interface {
	FindByID(ctx context.Context, id string) (*models.GenerationRun, error)
	ListByTermAndStatus(ctx context.Context, termID string, status models.GenerationRunStatus) ([]models.GenerationRun, error)
	SetApplied(ctx context.Context, exec sqlx.ExtContext, id string, snapshot types.JSONText) error
	SetRolledBack(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type classScheduleStore interface {
	ListBySections(ctx context.Context, termID string, sectionIDs []string) ([]models.ClassScheduleEntry, error)
	DeleteBySections(ctx context.Context, exec sqlx.ExtContext, termID string, sectionIDs []string) (int64, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.ClassScheduleEntry) error
}

type teacherScheduleStore interface {
	DeleteBySections(ctx context.Context, exec sqlx.ExtContext, termID string, sectionIDs []string) (int64, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.TeacherScheduleEntry) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type applyObserver interface {
	ObserveApply(op string, duration time.Duration)
}

// ApplyService commits completed runs to the live timetable and reverts
// applied ones. Both directions run in a single transaction so the class
// view, the teacher view and the run state never diverge. The teacher view
// is always rebuilt as a projection of the class view, never written from
// independent data.
type ApplyService struct {
	runs     appliedRunStore
	classes  classScheduleStore
	teachers teacherScheduleStore
	tx       txProvider
	cache    cacheInvalidator
	metrics  applyObserver
	logger   *zap.Logger

	// mu serializes apply/rollback so two transactions never interleave
	// over overlapping section scopes.
	mu sync.Mutex
}

// NewApplyService constructs the service.
func NewApplyService(runs appliedRunStore, classes classScheduleStore, teachers teacherScheduleStore, tx txProvider, cache cacheInvalidator, metrics applyObserver, logger *zap.Logger) *ApplyService {
	return &ApplyService{
		runs:     runs,
		classes:  classes,
		teachers: teachers,
		tx:       tx,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Apply replaces the live schedule of the run's sections with the run's
// candidate. The replaced rows are stored on the run as the rollback
// snapshot. A run whose scope overlaps another still-applied run is
// rejected; the older run must be rolled back first.
func (s *ApplyService) Apply(ctx context.Context, runID string) (*dto.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started := time.Now()

	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.CanApply() {
		if run.Status == models.RunStatusApplied {
			return nil, appErrors.Clone(appErrors.ErrConflict, "run is already applied")
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("run in state %s cannot be applied", run.Status))
	}

	sectionIDs, err := decodeSectionIDs(run.SectionIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkScopeOverlap(ctx, run, sectionIDs); err != nil {
		return nil, err
	}

	var payload dto.GeneratedSchedule
	if err := json.Unmarshal(run.Schedule, &payload); err != nil {
		return nil, fmt.Errorf("decode run schedule: %w", err)
	}
	classEntries := classEntriesFrom(run.TermID, payload)
	teacherEntries := projectTeacherView(classEntries)

	previous, err := s.classes.ListBySections(ctx, run.TermID, sectionIDs)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(previous)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, appErrors.ErrTransaction.Message)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.classes.DeleteBySections(ctx, tx, run.TermID, sectionIDs); err != nil {
		return nil, err
	}
	if _, err := s.teachers.DeleteBySections(ctx, tx, run.TermID, sectionIDs); err != nil {
		return nil, err
	}
	if err := s.classes.BulkInsert(ctx, tx, classEntries); err != nil {
		return nil, err
	}
	if err := s.teachers.BulkInsert(ctx, tx, teacherEntries); err != nil {
		return nil, err
	}
	if err := s.runs.SetApplied(ctx, tx, run.ID, snapshot); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, appErrors.ErrTransaction.Message)
	}
	committed = true

	s.invalidateAnalyzeCache(ctx, run.TermID)
	if s.metrics != nil {
		s.metrics.ObserveApply("apply", time.Since(started))
	}
	s.logger.Info("generation run applied",
		zap.String("run_id", run.ID),
		zap.String("term_id", run.TermID),
		zap.Int("class_entries", len(classEntries)),
		zap.Int("teacher_entries", len(teacherEntries)))

	return &dto.ApplyResult{
		Message:               "schedule applied",
		ClassEntriesCreated:   len(classEntries),
		TeacherEntriesCreated: len(teacherEntries),
		SectionsAffected:      sectionIDs,
	}, nil
}

// Rollback restores the live schedule that the run's Apply replaced and
// rebuilds the teacher view from the restored class rows.
func (s *ApplyService) Rollback(ctx context.Context, runID string) (*dto.RollbackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started := time.Now()

	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.CanRollback() {
		return nil, appErrors.Clone(appErrors.ErrRollbackUnavailable, fmt.Sprintf("run in state %s has no restorable snapshot", run.Status))
	}

	sectionIDs, err := decodeSectionIDs(run.SectionIDs)
	if err != nil {
		return nil, err
	}

	var restored []models.ClassScheduleEntry
	if err := json.Unmarshal(run.Snapshot, &restored); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for i := range restored {
		restored[i].ID = ""
	}
	teacherEntries := projectTeacherView(restored)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, appErrors.ErrTransaction.Message)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.classes.DeleteBySections(ctx, tx, run.TermID, sectionIDs); err != nil {
		return nil, err
	}
	if _, err := s.teachers.DeleteBySections(ctx, tx, run.TermID, sectionIDs); err != nil {
		return nil, err
	}
	if err := s.classes.BulkInsert(ctx, tx, restored); err != nil {
		return nil, err
	}
	if err := s.teachers.BulkInsert(ctx, tx, teacherEntries); err != nil {
		return nil, err
	}
	if err := s.runs.SetRolledBack(ctx, tx, run.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, appErrors.ErrTransaction.Message)
	}
	committed = true

	s.invalidateAnalyzeCache(ctx, run.TermID)
	if s.metrics != nil {
		s.metrics.ObserveApply("rollback", time.Since(started))
	}
	s.logger.Info("generation run rolled back",
		zap.String("run_id", run.ID),
		zap.String("term_id", run.TermID),
		zap.Int("class_entries", len(restored)),
		zap.Int("teacher_entries", len(teacherEntries)))

	return &dto.RollbackResult{
		Message:                "schedule restored from snapshot",
		ClassEntriesRestored:   len(restored),
		TeacherEntriesRestored: len(teacherEntries),
	}, nil
}

func (s *ApplyService) loadRun(ctx context.Context, runID string) (*models.GenerationRun, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// checkScopeOverlap rejects applying over sections covered by another run
// that is still applied. Silent last-apply-wins would leave that run's
// snapshot pointing at rows it no longer owns.
func (s *ApplyService) checkScopeOverlap(ctx context.Context, run *models.GenerationRun, sectionIDs []string) error {
	applied, err := s.runs.ListByTermAndStatus(ctx, run.TermID, models.RunStatusApplied)
	if err != nil {
		return err
	}
	scope := make(map[string]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		scope[id] = true
	}
	for _, other := range applied {
		if other.ID == run.ID {
			continue
		}
		otherIDs, err := decodeSectionIDs(other.SectionIDs)
		if err != nil {
			continue
		}
		for _, id := range otherIDs {
			if scope[id] {
				return appErrors.Clone(appErrors.ErrScopeConflict,
					fmt.Sprintf("section %s is covered by applied run %s; roll it back first", id, other.ID))
			}
		}
	}
	return nil
}

func (s *ApplyService) invalidateAnalyzeCache(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("timetable:analyze:%s:*", termID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("invalidate analyze cache", zap.String("term_id", termID), zap.Error(err))
	}
}

func decodeSectionIDs(raw types.JSONText) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode section ids: %w", err)
	}
	return ids, nil
}

// classEntriesFrom flattens the stored candidate into live class-view rows.
func classEntriesFrom(termID string, payload dto.GeneratedSchedule) []models.ClassScheduleEntry {
	var entries []models.ClassScheduleEntry
	for sectionID, section := range payload.Sections {
		for day, slots := range section.Days {
			for _, slot := range slots {
				entries = append(entries, models.ClassScheduleEntry{
					TermID:    termID,
					SectionID: sectionID,
					DayOfWeek: day,
					Slot:      slot.SlotIndex,
					SubjectID: slot.SubjectID,
					TeacherID: slot.TeacherID,
					RoomID:    slot.RoomID,
				})
			}
		}
	}
	return entries
}

// projectTeacherView derives teacher-view rows from class-view rows.
func projectTeacherView(entries []models.ClassScheduleEntry) []models.TeacherScheduleEntry {
	var projected []models.TeacherScheduleEntry
	for _, entry := range entries {
		if row, ok := models.TeacherProjection(entry); ok {
			projected = append(projected, row)
		}
	}
	return projected
}
