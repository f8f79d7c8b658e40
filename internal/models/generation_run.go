package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GenerationRunStatus tracks the run lifecycle:
// DRAFT -> RUNNING -> COMPLETED | FAILED, then COMPLETED -> APPLIED -> ROLLED_BACK.
type GenerationRunStatus string

const (
	RunStatusDraft      GenerationRunStatus = "DRAFT"
	RunStatusRunning    GenerationRunStatus = "RUNNING"
	RunStatusCompleted  GenerationRunStatus = "COMPLETED"
	RunStatusFailed     GenerationRunStatus = "FAILED"
	RunStatusApplied    GenerationRunStatus = "APPLIED"
	RunStatusRolledBack GenerationRunStatus = "ROLLED_BACK"
)

// GenerationRun is one attempt to produce a timetable for a config scope.
type GenerationRun struct {
	ID           string              `db:"id" json:"id"`
	TermID       string              `db:"term_id" json:"term_id"`
	SectionIDs   types.JSONText      `db:"section_ids" json:"section_ids"`
	Status       GenerationRunStatus `db:"status" json:"status"`
	Fitness      float64             `db:"fitness" json:"fitness"`
	Schedule     types.JSONText      `db:"schedule" json:"schedule,omitempty"`
	Snapshot     types.JSONText      `db:"snapshot" json:"-"`
	Stats        types.JSONText      `db:"stats" json:"stats,omitempty"`
	ErrorDetail  types.JSONText      `db:"error_detail" json:"error_detail,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
	AppliedAt    *time.Time          `db:"applied_at" json:"applied_at,omitempty"`
	RolledBackAt *time.Time          `db:"rolled_back_at" json:"rolled_back_at,omitempty"`
}

// CanApply reports whether the run may be committed to the live schedule.
func (r *GenerationRun) CanApply() bool {
	return r != nil && r.Status == RunStatusCompleted
}

// CanRollback reports whether the run may be reverted.
func (r *GenerationRun) CanRollback() bool {
	return r != nil && r.Status == RunStatusApplied && len(r.Snapshot) > 0
}

// RunStats summarises the search effort stored alongside a run.
type RunStats struct {
	Seeds              int     `json:"seeds"`
	Generations        int     `json:"generations"`
	CSPBacktracks      int     `json:"csp_backtracks"`
	InitialFitness     float64 `json:"initial_fitness"`
	FinalFitness       float64 `json:"final_fitness"`
	PlateauStopped     bool    `json:"plateau_stopped"`
	ElapsedMillis      int64   `json:"elapsed_millis"`
	FitnessWorkers     int     `json:"fitness_workers"`
	PopulationSize     int     `json:"population_size"`
	RepairedUnfeasible int     `json:"repaired_unfeasible"`
}
