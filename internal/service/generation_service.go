package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/engine"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	"github.com/mishrapeekay/campuskona-timetable/pkg/config"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
	"github.com/mishrapeekay/campuskona-timetable/pkg/jobs"
)

type generationRunStore interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	FindByID(ctx context.Context, id string) (*models.GenerationRun, error)
	ListByTerm(ctx context.Context, termID string) ([]models.GenerationRun, error)
	SetRunning(ctx context.Context, id string) error
	SetCompleted(ctx context.Context, id string, fitness float64, schedule, stats types.JSONText) error
	SetFailed(ctx context.Context, id string, errorDetail types.JSONText) error
}

type generationObserver interface {
	ObserveGeneration(status models.GenerationRunStatus, duration time.Duration)
}

// GenerationService owns the run lifecycle: it validates a request, records
// a draft run, executes the search in the background and stores the outcome.
type GenerationService struct {
	runs      generationRunStore
	loader    *DatasetLoader
	metrics   generationObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.TimetableConfig

	queue *jobs.Queue

	mu       sync.Mutex
	inFlight map[string]string // section ID -> run ID currently generating
}

// NewGenerationService constructs the service and its background queue.
// Call StartWorkers before accepting requests and StopWorkers on shutdown.
func NewGenerationService(runs generationRunStore, loader *DatasetLoader, metrics generationObserver, validate *validator.Validate, logger *zap.Logger, cfg config.TimetableConfig) *GenerationService {
	s := &GenerationService{
		runs:      runs,
		loader:    loader,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		inFlight:  make(map[string]string),
	}
	s.queue = jobs.NewQueue("timetable-generation", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// StartWorkers begins background job consumption.
func (s *GenerationService) StartWorkers(ctx context.Context) { s.queue.Start(ctx) }

// StopWorkers drains the queue and stops its workers.
func (s *GenerationService) StopWorkers() { s.queue.Stop() }

type generationJob struct {
	RunID   string
	Request dto.GenerateRunRequest
}

// Generate validates the request, records a draft run and schedules it for
// background execution. Overlap with a run still generating is rejected so
// two searches never race over the same sections.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateRunRequest) (*models.GenerationRun, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	for _, day := range req.WorkingDays {
		if !models.IsKnownDay(day) {
			return nil, appErrors.Clone(appErrors.ErrConfigInvalid, fmt.Sprintf("unknown working day %q", day))
		}
	}
	if _, err := s.timeBudget(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time budget: %v", err))
	}

	sectionIDs, err := json.Marshal(req.SectionIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal section ids: %w", err)
	}
	run := &models.GenerationRun{
		ID:         uuid.NewString(),
		TermID:     req.TermID,
		SectionIDs: types.JSONText(sectionIDs),
		Status:     models.RunStatusDraft,
	}

	if err := s.claimScope(req.SectionIDs, run.ID); err != nil {
		return nil, err
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.releaseScope(run.ID)
		return nil, err
	}

	if err := s.queue.Enqueue(jobs.Job{Type: "generate", Payload: generationJob{RunID: run.ID, Request: req}}); err != nil {
		s.releaseScope(run.ID)
		return nil, fmt.Errorf("enqueue generation: %w", err)
	}
	s.logger.Info("generation run queued",
		zap.String("run_id", run.ID),
		zap.String("term_id", req.TermID),
		zap.Int("sections", len(req.SectionIDs)))
	return run, nil
}

// GetRun loads one run.
func (s *GenerationService) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns a term's runs, newest first.
func (s *GenerationService) ListRuns(ctx context.Context, termID string) ([]models.GenerationRun, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	return s.runs.ListByTerm(ctx, termID)
}

func (s *GenerationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.Execute(ctx, payload.RunID, payload.Request)
}

// Execute runs the full pipeline for one run: preflight, capacity check,
// backtracking seed generation, genetic optimization, post-generation check
// and persistence of the winner. Failures are stored on the run.
func (s *GenerationService) Execute(ctx context.Context, runID string, req dto.GenerateRunRequest) error {
	defer s.releaseScope(runID)
	started := time.Now()

	if err := s.runs.SetRunning(ctx, runID); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	err := s.execute(ctx, runID, req, started)
	status := models.RunStatusCompleted
	if err != nil {
		status = models.RunStatusFailed
		s.failRun(ctx, runID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration(status, time.Since(started))
	}
	return err
}

func (s *GenerationService) execute(ctx context.Context, runID string, req dto.GenerateRunRequest, started time.Time) error {
	ds, err := s.loader.Load(ctx, req.TermID, req.SectionIDs, req.WorkingDays)
	if err != nil {
		return err
	}
	idx := engine.NewIndex(ds)

	if problems := engine.Preflight(idx); len(problems) > 0 {
		detail, _ := json.Marshal(problems)
		return appErrors.Wrap(fmt.Errorf("preflight found %d problems: %s", len(problems), detail),
			appErrors.ErrConfigInvalid.Code, appErrors.ErrConfigInvalid.Status, appErrors.ErrConfigInvalid.Message)
	}
	if shortfalls := engine.CapacityShortfalls(idx); len(shortfalls) > 0 {
		detail, _ := json.Marshal(shortfalls)
		return appErrors.Wrap(fmt.Errorf("capacity shortfalls: %s", detail),
			appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, appErrors.ErrInfeasible.Message)
	}

	budget, _ := s.timeBudget(req)
	deadline := started.Add(budget)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	population := s.cfg.PopulationSize
	if req.PopulationSize > 0 {
		population = req.PopulationSize
	}
	generations := s.cfg.Generations
	if req.Generations > 0 {
		generations = req.Generations
	}
	weights := weightsFrom(req.ConstraintWeights)

	seeds, backtracks, seedErr := s.seedPopulation(idx, population, deadline)
	if len(seeds) == 0 {
		return appErrors.Wrap(seedErr, appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, appErrors.ErrInfeasible.Message)
	}

	optimizer := engine.NewOptimizer(idx, weights, engine.GAConfig{
		PopulationSize: population,
		Generations:    generations,
		MutationRate:   s.cfg.MutationRate,
		PlateauWindow:  s.cfg.PlateauWindow,
		Workers:        s.cfg.FitnessWorkers,
		Deadline:       deadline,
	})
	initial := optimizer.Fitness(seeds[0])
	best, fitness, gaStats := optimizer.Optimize(seeds)

	if violations := engine.PostGenerationCheck(idx, best); len(violations) > 0 {
		detail, _ := json.Marshal(violations)
		return appErrors.Wrap(fmt.Errorf("winner violates hard constraints: %s", detail),
			appErrors.ErrPostGenerationViolation.Code, appErrors.ErrPostGenerationViolation.Status, appErrors.ErrPostGenerationViolation.Message)
	}

	boundary := toBoundary(idx, best)
	schedule, err := json.Marshal(boundary)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	stats, err := json.Marshal(models.RunStats{
		Seeds:              len(seeds),
		Generations:        gaStats.Generations,
		CSPBacktracks:      backtracks,
		InitialFitness:     initial,
		FinalFitness:       fitness,
		PlateauStopped:     gaStats.PlateauStopped,
		ElapsedMillis:      time.Since(started).Milliseconds(),
		FitnessWorkers:     s.cfg.FitnessWorkers,
		PopulationSize:     population,
		RepairedUnfeasible: gaStats.RepairedUnfeasible,
	})
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := s.runs.SetCompleted(ctx, runID, fitness, schedule, stats); err != nil {
		return fmt.Errorf("store completed run: %w", err)
	}
	s.logger.Info("generation run completed",
		zap.String("run_id", runID),
		zap.Float64("fitness", fitness),
		zap.Int("generations", gaStats.Generations),
		zap.Int("backtracks", backtracks),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

// seedPopulation produces initial feasible schedules with randomized
// tie-breaking. A quarter of the population is seeded by search; the
// optimizer clones the rest.
func (s *GenerationService) seedPopulation(idx *engine.Index, population int, deadline time.Time) ([]*engine.Schedule, int, error) {
	seedCount := population / 4
	if seedCount < 1 {
		seedCount = 1
	}
	if seedCount > 8 {
		seedCount = 8
	}

	var (
		seeds      []*engine.Schedule
		backtracks int
		lastErr    *engine.InfeasibleError
	)
	for i := 0; i < seedCount; i++ {
		// The first seed is deterministic; later seeds shuffle ties for
		// population diversity.
		var rng *rand.Rand
		if i > 0 {
			rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		}
		gen := engine.NewGenerator(idx, engine.CSPConfig{
			IterationLimit: s.cfg.CSPIterationLimit,
			Deadline:       deadline,
			Rand:           rng,
		})
		schedule, infeasible := gen.Solve()
		backtracks += gen.Backtracks()
		if infeasible != nil {
			lastErr = infeasible
			continue
		}
		seeds = append(seeds, schedule)
	}
	if len(seeds) == 0 {
		if lastErr == nil {
			lastErr = &engine.InfeasibleError{Detail: "no seed produced"}
		}
		return nil, backtracks, lastErr
	}
	return seeds, backtracks, nil
}

func (s *GenerationService) failRun(ctx context.Context, runID string, cause error) {
	typed := appErrors.FromError(cause)
	detail, err := json.Marshal(map[string]string{
		"code":    typed.Code,
		"message": typed.Message,
		"detail":  cause.Error(),
	})
	if err != nil {
		detail = types.JSONText(`{"code":"INTERNAL_ERROR"}`)
	}
	if err := s.runs.SetFailed(ctx, runID, detail); err != nil {
		s.logger.Error("store failed run", zap.String("run_id", runID), zap.Error(err))
	}
	s.logger.Warn("generation run failed",
		zap.String("run_id", runID),
		zap.String("code", typed.Code),
		zap.Error(cause))
}

func (s *GenerationService) timeBudget(req dto.GenerateRunRequest) (time.Duration, error) {
	if req.TimeBudget == "" {
		return s.cfg.TimeBudget, nil
	}
	budget, err := time.ParseDuration(req.TimeBudget)
	if err != nil {
		return 0, err
	}
	if budget <= 0 || budget > time.Hour {
		return 0, fmt.Errorf("time budget %s out of range", budget)
	}
	return budget, nil
}

func (s *GenerationService) claimScope(sectionIDs []string, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sectionIDs {
		if holder, busy := s.inFlight[id]; busy {
			return appErrors.Clone(appErrors.ErrScopeConflict, fmt.Sprintf("section %s is being generated by run %s", id, holder))
		}
	}
	for _, id := range sectionIDs {
		s.inFlight[id] = runID
	}
	return nil
}

func (s *GenerationService) releaseScope(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sectionID, holder := range s.inFlight {
		if holder == runID {
			delete(s.inFlight, sectionID)
		}
	}
}

// weightsFrom merges request overrides over the default soft weights.
func weightsFrom(overrides map[string]float64) engine.Weights {
	w := engine.DefaultWeights()
	for key, weight := range overrides {
		switch key {
		case "load_balance":
			w.LoadBalance = weight
		case "subject_spread":
			w.SubjectSpread = weight
		case "teacher_gaps":
			w.TeacherGaps = weight
		case "consecutive":
			w.Consecutive = weight
		}
	}
	return w
}
