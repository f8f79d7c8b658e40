package service

import (
	"context"
	"fmt"

	"github.com/mishrapeekay/campuskona-timetable/internal/engine"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
)

type sectionReader interface {
	ListByIDs(ctx context.Context, termID string, ids []string) ([]models.Section, error)
}

type constraintReader interface {
	ListBySections(ctx context.Context, sectionIDs []string) ([]models.SubjectPeriodRequirement, error)
	ListEligibilitiesBySections(ctx context.Context, sectionIDs []string) ([]models.TeacherEligibility, error)
	ListUnavailabilitiesByTeachers(ctx context.Context, teacherIDs []string) ([]models.TeacherUnavailability, error)
	ListActiveRooms(ctx context.Context) ([]models.Room, error)
	ListTeachingSlots(ctx context.Context) ([]models.TimeSlot, error)
}

// DatasetLoader assembles the engine's read-only dataset from the
// academic-structure, staff and room providers. Generation, analyze and
// validation all load through it so they see identical inputs.
type DatasetLoader struct {
	sections    sectionReader
	constraints constraintReader
}

// NewDatasetLoader constructs the loader.
func NewDatasetLoader(sections sectionReader, constraints constraintReader) *DatasetLoader {
	return &DatasetLoader{sections: sections, constraints: constraints}
}

// Load builds the dataset for one generation scope. Unknown section IDs and
// unknown day names are rejected here, before any search starts.
func (l *DatasetLoader) Load(ctx context.Context, termID string, sectionIDs, workingDays []string) (*engine.Dataset, error) {
	for _, day := range workingDays {
		if !models.IsKnownDay(day) {
			return nil, appErrors.Clone(appErrors.ErrConfigInvalid, fmt.Sprintf("unknown working day %q", day))
		}
	}

	sections, err := l.sections.ListByIDs(ctx, termID, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	if len(sections) != len(sectionIDs) {
		found := make(map[string]bool, len(sections))
		for _, s := range sections {
			found[s.ID] = true
		}
		for _, id := range sectionIDs {
			if !found[id] {
				return nil, appErrors.Clone(appErrors.ErrConfigInvalid, fmt.Sprintf("section %s not found in term %s", id, termID))
			}
		}
	}

	requirements, err := l.constraints.ListBySections(ctx, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	eligibilities, err := l.constraints.ListEligibilitiesBySections(ctx, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("load eligibilities: %w", err)
	}

	teacherIDs := make([]string, 0, len(eligibilities))
	seen := make(map[string]bool)
	for _, e := range eligibilities {
		if !seen[e.TeacherID] {
			seen[e.TeacherID] = true
			teacherIDs = append(teacherIDs, e.TeacherID)
		}
	}
	unavailabilities, err := l.constraints.ListUnavailabilitiesByTeachers(ctx, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("load unavailabilities: %w", err)
	}

	rooms, err := l.constraints.ListActiveRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	slots, err := l.constraints.ListTeachingSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load teaching slots: %w", err)
	}

	ds := &engine.Dataset{
		TermID:       termID,
		Days:         append([]string(nil), workingDays...),
		Requirements: make(map[string][]engine.Requirement, len(sectionIDs)),
		Eligible:     make(map[string]map[string][]string, len(sectionIDs)),
		Unavailable:  make(map[string]map[string]map[int]bool),
		Rooms:        rooms,
	}
	for _, s := range sections {
		ds.Sections = append(ds.Sections, engine.SectionInfo{
			ID:           s.ID,
			ClassName:    s.ClassName,
			SectionName:  s.SectionName,
			StudentCount: s.StudentCount,
		})
	}
	for _, slot := range slots {
		ds.Slots = append(ds.Slots, slot.Ordinal)
	}
	for _, req := range requirements {
		ds.Requirements[req.SectionID] = append(ds.Requirements[req.SectionID], engine.Requirement{
			SubjectID:      req.SubjectID,
			PeriodsPerWeek: req.PeriodsPerWeek,
			MaxConsecutive: req.MaxConsecutive,
			RoomType:       req.RoomType,
		})
	}
	for _, e := range eligibilities {
		bySubject := ds.Eligible[e.SectionID]
		if bySubject == nil {
			bySubject = make(map[string][]string)
			ds.Eligible[e.SectionID] = bySubject
		}
		bySubject[e.SubjectID] = append(bySubject[e.SubjectID], e.TeacherID)
	}
	for _, u := range unavailabilities {
		byDay := ds.Unavailable[u.TeacherID]
		if byDay == nil {
			byDay = make(map[string]map[int]bool)
			ds.Unavailable[u.TeacherID] = byDay
		}
		bySlot := byDay[u.DayOfWeek]
		if bySlot == nil {
			bySlot = make(map[int]bool)
			byDay[u.DayOfWeek] = bySlot
		}
		bySlot[u.Slot] = true
	}
	return ds, nil
}
