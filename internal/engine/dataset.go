// Package engine implements the timetable generation core: the constraint
// model, the availability/requirement index, the backtracking generator, the
// genetic optimizer and the validators. The engine is pure: it never touches
// the store and operates on a Dataset assembled by the service layer.
package engine

import "github.com/mishrapeekay/campuskona-timetable/internal/models"

// SectionInfo carries the section attributes the engine needs.
type SectionInfo struct {
	ID           string
	ClassName    string
	SectionName  string
	StudentCount int
}

// Requirement is the per-section weekly demand for one subject.
type Requirement struct {
	SubjectID      string
	PeriodsPerWeek int
	MaxConsecutive int
	RoomType       string
}

// Dataset is the read-only input of one generation run. It is built once by
// the service layer from the academic-structure, staff and room providers
// and shared by the generator, the optimizer and the validators.
type Dataset struct {
	TermID string
	// Days is the ordered set of working day identifiers.
	Days []string
	// Slots holds the teaching slot ordinals in daily order. Break slots are
	// excluded before the dataset reaches the engine.
	Slots []int

	Sections     []SectionInfo
	Requirements map[string][]Requirement // section ID -> demands
	// Eligible lists teacher IDs per (section, subject), ordered by priority.
	Eligible map[string]map[string][]string
	// Unavailable marks (teacher, day, slot) combinations that must not be used.
	Unavailable map[string]map[string]map[int]bool
	Rooms       []models.Room
}

// Section returns the info for a section ID.
func (d *Dataset) Section(id string) (SectionInfo, bool) {
	for _, s := range d.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return SectionInfo{}, false
}

// CellsPerWeek is the number of teaching cells available to one section.
func (d *Dataset) CellsPerWeek() int {
	return len(d.Days) * len(d.Slots)
}
