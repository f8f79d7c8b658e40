package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

func TestScheduleCloneIsIndependent(t *testing.T) {
	s := NewSchedule()
	cell := Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 1}
	s.Set(cell, Assignment{SubjectID: "math", TeacherID: "t-ana"})

	clone := s.Clone()
	clone.Set(cell, Assignment{SubjectID: "eng", TeacherID: "t-cara"})
	clone.Set(Cell{SectionID: "sec-a", Day: models.DayTuesday, Slot: 2}, Assignment{SubjectID: "sci", TeacherID: "t-ben"})

	original, ok := s.At(cell)
	require.True(t, ok)
	assert.Equal(t, "math", original.SubjectID)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestScheduleEntriesOrdered(t *testing.T) {
	s := NewSchedule()
	s.Set(Cell{SectionID: "sec-b", Day: models.DayMonday, Slot: 1}, Assignment{SubjectID: "eng"})
	s.Set(Cell{SectionID: "sec-a", Day: models.DayTuesday, Slot: 2}, Assignment{SubjectID: "sci"})
	s.Set(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 3}, Assignment{SubjectID: "math"})
	s.Set(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 1}, Assignment{SubjectID: "math"})

	entries := s.Entries(DayOrderOf([]string{models.DayMonday, models.DayTuesday}))
	require.Len(t, entries, 4)
	assert.Equal(t, Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 1}, entries[0].Cell)
	assert.Equal(t, Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 3}, entries[1].Cell)
	assert.Equal(t, Cell{SectionID: "sec-a", Day: models.DayTuesday, Slot: 2}, entries[2].Cell)
	assert.Equal(t, Cell{SectionID: "sec-b", Day: models.DayMonday, Slot: 1}, entries[3].Cell)
}

func TestSectionDayAssignments(t *testing.T) {
	s := NewSchedule()
	s.Set(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 1}, Assignment{SubjectID: "math"})
	s.Set(Cell{SectionID: "sec-a", Day: models.DayTuesday, Slot: 2}, Assignment{SubjectID: "sci"})
	s.Set(Cell{SectionID: "sec-b", Day: models.DayMonday, Slot: 1}, Assignment{SubjectID: "eng"})

	row := s.SectionDayAssignments("sec-a", models.DayMonday)
	require.Len(t, row, 1)
	assert.Equal(t, "math", row[1].SubjectID)

	s.Unset(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 1})
	assert.Empty(t, s.SectionDayAssignments("sec-a", models.DayMonday))
}
