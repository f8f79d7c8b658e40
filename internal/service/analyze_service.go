package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/engine"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
)

type analyzeRunReader interface {
	FindByID(ctx context.Context, id string) (*models.GenerationRun, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AnalyzeService computes quality diagnostics for a completed or applied
// run: fitness, teacher and room utilization, subject distribution and
// potential issues. Reports are cached until the next Apply or Rollback
// touches the term.
type AnalyzeService struct {
	runs   analyzeRunReader
	loader *DatasetLoader
	cache  reportCache
	logger *zap.Logger
	ttl    time.Duration
}

// NewAnalyzeService constructs the service.
func NewAnalyzeService(runs analyzeRunReader, loader *DatasetLoader, cache reportCache, logger *zap.Logger, ttl time.Duration) *AnalyzeService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AnalyzeService{runs: runs, loader: loader, cache: cache, logger: logger, ttl: ttl}
}

// Analyze builds the report for a run. WorkingDays must match the run's
// generation request; they are recovered from the stored schedule.
func (s *AnalyzeService) Analyze(ctx context.Context, runID string) (*engine.Report, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	if run.Status != models.RunStatusCompleted && run.Status != models.RunStatusApplied {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("run in state %s has no schedule to analyze", run.Status))
	}

	key := fmt.Sprintf("timetable:analyze:%s:%s", run.TermID, run.ID)
	if s.cache != nil {
		var cached engine.Report
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("analyze cache read", zap.String("run_id", runID), zap.Error(err))
		}
	}

	var payload dto.GeneratedSchedule
	if err := json.Unmarshal(run.Schedule, &payload); err != nil {
		return nil, fmt.Errorf("decode run schedule: %w", err)
	}
	sectionIDs, err := decodeSectionIDs(run.SectionIDs)
	if err != nil {
		return nil, err
	}
	days := workingDaysOf(payload)

	ds, err := s.loader.Load(ctx, run.TermID, sectionIDs, days)
	if err != nil {
		return nil, err
	}
	idx := engine.NewIndex(ds)
	schedule, err := fromBoundary(idx, payload)
	if err != nil {
		return nil, err
	}

	report := engine.Analyze(idx, schedule, run.Fitness)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
			s.logger.Warn("analyze cache write", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return &report, nil
}

// workingDaysOf recovers the generation's working days from the stored
// candidate, ordered by weekday position.
func workingDaysOf(payload dto.GeneratedSchedule) []string {
	seen := make(map[string]bool)
	var days []string
	for _, section := range payload.Sections {
		for day := range section.Days {
			if !seen[day] {
				seen[day] = true
				days = append(days, day)
			}
		}
	}
	for i := 0; i < len(days); i++ {
		for j := i + 1; j < len(days); j++ {
			if models.DayOrdinal(days[j]) < models.DayOrdinal(days[i]) {
				days[i], days[j] = days[j], days[i]
			}
		}
	}
	return days
}
