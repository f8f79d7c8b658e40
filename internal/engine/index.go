package engine

import "sort"

// Index is the pre-computed availability and requirement lookup shared
// read-only by the generator and the optimizer. Building it is
// O(teachers x days x slots) and happens once per run, before search starts.
type Index struct {
	ds *Dataset

	teachers     []string
	availability map[string]map[string]map[int]bool // teacher -> day -> slot -> free
	availCount   map[string]int
	roomsByType  map[string][]int // room type -> indexes into ds.Rooms, ascending capacity
	slotPos      map[int]int      // slot ordinal -> position in the daily order
}

// NewIndex builds the shared lookup from a dataset.
func NewIndex(ds *Dataset) *Index {
	idx := &Index{
		ds:           ds,
		availability: make(map[string]map[string]map[int]bool),
		availCount:   make(map[string]int),
		roomsByType:  make(map[string][]int),
		slotPos:      make(map[int]int, len(ds.Slots)),
	}

	for pos, slot := range ds.Slots {
		idx.slotPos[slot] = pos
	}

	seen := make(map[string]bool)
	for _, bySubject := range ds.Eligible {
		for _, teachers := range bySubject {
			for _, t := range teachers {
				if !seen[t] {
					seen[t] = true
					idx.teachers = append(idx.teachers, t)
				}
			}
		}
	}
	sort.Strings(idx.teachers)

	for _, t := range idx.teachers {
		byDay := make(map[string]map[int]bool, len(ds.Days))
		count := 0
		for _, day := range ds.Days {
			bySlot := make(map[int]bool, len(ds.Slots))
			for _, slot := range ds.Slots {
				free := !ds.Unavailable[t][day][slot]
				bySlot[slot] = free
				if free {
					count++
				}
			}
			byDay[day] = bySlot
		}
		idx.availability[t] = byDay
		idx.availCount[t] = count
	}

	for i, room := range ds.Rooms {
		if !room.Active {
			continue
		}
		idx.roomsByType[room.Type] = append(idx.roomsByType[room.Type], i)
	}
	for roomType := range idx.roomsByType {
		rooms := idx.roomsByType[roomType]
		sort.Slice(rooms, func(i, j int) bool {
			return ds.Rooms[rooms[i]].Capacity < ds.Rooms[rooms[j]].Capacity
		})
	}

	return idx
}

// Dataset returns the backing dataset.
func (idx *Index) Dataset() *Dataset { return idx.ds }

// TeachersFor returns the ordered eligible teachers for a section-subject pair.
func (idx *Index) TeachersFor(sectionID, subjectID string) []string {
	return idx.ds.Eligible[sectionID][subjectID]
}

// IsAvailable reports whether a teacher may teach at (day, slot).
func (idx *Index) IsAvailable(teacherID, day string, slot int) bool {
	byDay, ok := idx.availability[teacherID]
	if !ok {
		return false
	}
	return byDay[day][slot]
}

// AvailableCells counts the free (day, slot) cells a teacher has per week.
func (idx *Index) AvailableCells(teacherID string) int {
	return idx.availCount[teacherID]
}

// RequirementsFor returns the weekly demands of a section.
func (idx *Index) RequirementsFor(sectionID string) []Requirement {
	return idx.ds.Requirements[sectionID]
}

// TotalRequiredPeriods sums the weekly demand of a section.
func (idx *Index) TotalRequiredPeriods(sectionID string) int {
	total := 0
	for _, req := range idx.ds.Requirements[sectionID] {
		total += req.PeriodsPerWeek
	}
	return total
}

// RoomsOfType returns active rooms of the given type with capacity >= needed,
// smallest first so large rooms stay free for large sections.
func (idx *Index) RoomsOfType(roomType string, needed int) []string {
	var ids []string
	for _, i := range idx.roomsByType[roomType] {
		if idx.ds.Rooms[i].Capacity >= needed {
			ids = append(ids, idx.ds.Rooms[i].ID)
		}
	}
	return ids
}

// SlotPosition returns the position of a slot ordinal within the daily order.
func (idx *Index) SlotPosition(slot int) int {
	return idx.slotPos[slot]
}

// Teachers returns every teacher referenced by an eligibility.
func (idx *Index) Teachers() []string {
	return idx.teachers
}
