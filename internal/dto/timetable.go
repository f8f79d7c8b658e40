package dto

// GenerateRunRequest asks for a new generation run over a scope.
type GenerateRunRequest struct {
	TermID            string             `json:"termId" validate:"required"`
	SectionIDs        []string           `json:"sectionIds" validate:"required,min=1,dive,required"`
	WorkingDays       []string           `json:"workingDays" validate:"required,min=1,max=7,dive,required"`
	PopulationSize    int                `json:"populationSize" validate:"omitempty,min=2,max=200"`
	Generations       int                `json:"generations" validate:"omitempty,min=1,max=2000"`
	ConstraintWeights map[string]float64 `json:"constraintWeights"`
	TimeBudget        string             `json:"timeBudget" validate:"omitempty"`
}

// GeneratedSlot is one assignment inside the boundary schedule payload.
type GeneratedSlot struct {
	SlotIndex int     `json:"slot_index"`
	SubjectID string  `json:"subject_id"`
	TeacherID *string `json:"teacher_id"`
	RoomID    *string `json:"room_id"`
}

// GeneratedSection groups one section's week keyed by day identifier.
type GeneratedSection struct {
	ClassName   string                     `json:"class_name"`
	SectionName string                     `json:"section_name"`
	Days        map[string][]GeneratedSlot `json:"days"`
}

// GeneratedSchedule is the serialization boundary format of a winning
// candidate. In-memory search works on strongly-typed engine records; this
// shape exists only at the persistence and transport boundary.
type GeneratedSchedule struct {
	Sections map[string]GeneratedSection `json:"sections"`
}

// RunQuery filters run listings.
type RunQuery struct {
	TermID string `form:"termId" json:"termId"`
}

// ApplyResult reports what an Apply committed.
type ApplyResult struct {
	Message               string   `json:"message"`
	ClassEntriesCreated   int      `json:"class_entries_created"`
	TeacherEntriesCreated int      `json:"teacher_entries_created"`
	SectionsAffected      []string `json:"sections_affected"`
}

// RollbackResult reports what a Rollback restored.
type RollbackResult struct {
	Message                string `json:"message"`
	ClassEntriesRestored   int    `json:"class_entries_restored"`
	TeacherEntriesRestored int    `json:"teacher_entries_restored"`
}
