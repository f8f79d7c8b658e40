package engine

import "sort"

// Cell addresses one (section, day, slot) teaching cell.
type Cell struct {
	SectionID string
	Day       string
	Slot      int
}

// Assignment is the (subject, teacher, room) triple placed into a cell.
// Teacher and Room may be empty when not applicable.
type Assignment struct {
	SubjectID string
	TeacherID string
	RoomID    string
}

// Schedule is the strongly-typed in-memory working timetable. It is owned
// exclusively by the generator or optimizer that created it; serialization
// to the boundary JSON shape happens only at the Apply boundary.
type Schedule struct {
	cells map[Cell]Assignment
}

// NewSchedule returns an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{cells: make(map[Cell]Assignment)}
}

// Clone deep-copies the schedule.
func (s *Schedule) Clone() *Schedule {
	dup := &Schedule{cells: make(map[Cell]Assignment, len(s.cells))}
	for cell, a := range s.cells {
		dup.cells[cell] = a
	}
	return dup
}

// Set places an assignment into a cell, replacing any previous one.
func (s *Schedule) Set(cell Cell, a Assignment) {
	s.cells[cell] = a
}

// Unset empties a cell.
func (s *Schedule) Unset(cell Cell) {
	delete(s.cells, cell)
}

// At returns the assignment in a cell, if any.
func (s *Schedule) At(cell Cell) (Assignment, bool) {
	a, ok := s.cells[cell]
	return a, ok
}

// Len returns the number of assigned cells.
func (s *Schedule) Len() int { return len(s.cells) }

// Entry pairs a cell with its assignment for iteration and export.
type Entry struct {
	Cell       Cell
	Assignment Assignment
}

// Entries returns all assignments ordered by section, day order, slot.
// dayOrder maps day identifiers to their position in the working week.
func (s *Schedule) Entries(dayOrder map[string]int) []Entry {
	entries := make([]Entry, 0, len(s.cells))
	for cell, a := range s.cells {
		entries = append(entries, Entry{Cell: cell, Assignment: a})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Cell, entries[j].Cell
		if a.SectionID != b.SectionID {
			return a.SectionID < b.SectionID
		}
		if dayOrder[a.Day] != dayOrder[b.Day] {
			return dayOrder[a.Day] < dayOrder[b.Day]
		}
		return a.Slot < b.Slot
	})
	return entries
}

// SectionDayAssignments returns the slot->assignment row of one section day.
func (s *Schedule) SectionDayAssignments(sectionID, day string) map[int]Assignment {
	row := make(map[int]Assignment)
	for cell, a := range s.cells {
		if cell.SectionID == sectionID && cell.Day == day {
			row[cell.Slot] = a
		}
	}
	return row
}

// DayOrderOf builds the day position lookup for an ordered working week.
func DayOrderOf(days []string) map[string]int {
	order := make(map[string]int, len(days))
	for i, d := range days {
		order[d] = i
	}
	return order
}
