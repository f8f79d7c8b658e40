package engine

import (
	"fmt"
	"sort"
)

// HardKind identifies a hard-constraint violation. A schedule is feasible
// iff its evaluation carries no hard violations.
type HardKind string

const (
	HardTeacherDoubleBooked HardKind = "TEACHER_DOUBLE_BOOKED"
	HardTeacherUnavailable  HardKind = "TEACHER_UNAVAILABLE"
	HardTeacherNotEligible  HardKind = "TEACHER_NOT_ELIGIBLE"
	HardPeriodCountMismatch HardKind = "PERIOD_COUNT_MISMATCH"
	HardRoomDoubleBooked    HardKind = "ROOM_DOUBLE_BOOKED"
	HardRoomOverCapacity    HardKind = "ROOM_OVER_CAPACITY"
)

// Violation pinpoints one hard-constraint breach.
type Violation struct {
	Kind      HardKind `json:"kind"`
	SectionID string   `json:"section_id,omitempty"`
	SubjectID string   `json:"subject_id,omitempty"`
	TeacherID string   `json:"teacher_id,omitempty"`
	RoomID    string   `json:"room_id,omitempty"`
	Day       string   `json:"day,omitempty"`
	Slot      int      `json:"slot,omitempty"`
	Detail    string   `json:"detail"`
}

// SoftKind enumerates the closed set of weighted soft constraints. Each kind
// carries its own evaluation function selected by exhaustive switch in
// softPenalty; adding a kind without extending the switch is a compile-time
// dead branch caught by tests.
type SoftKind string

const (
	SoftLoadBalance   SoftKind = "TEACHER_LOAD_BALANCE"
	SoftSubjectSpread SoftKind = "SUBJECT_SPREAD"
	SoftTeacherGaps   SoftKind = "TEACHER_GAPS"
	SoftConsecutive   SoftKind = "MAX_CONSECUTIVE"
)

// SoftKinds lists every soft constraint in evaluation order.
func SoftKinds() []SoftKind {
	return []SoftKind{SoftLoadBalance, SoftSubjectSpread, SoftTeacherGaps, SoftConsecutive}
}

// Weights maps each soft kind to its penalty weight. Zero disables a kind.
type Weights struct {
	LoadBalance   float64 `json:"load_balance"`
	SubjectSpread float64 `json:"subject_spread"`
	TeacherGaps   float64 `json:"teacher_gaps"`
	Consecutive   float64 `json:"consecutive"`
}

// DefaultWeights weighs all soft constraints equally.
func DefaultWeights() Weights {
	return Weights{LoadBalance: 1, SubjectSpread: 1, TeacherGaps: 1, Consecutive: 1}
}

func (w Weights) of(kind SoftKind) float64 {
	switch kind {
	case SoftLoadBalance:
		return w.LoadBalance
	case SoftSubjectSpread:
		return w.SubjectSpread
	case SoftTeacherGaps:
		return w.TeacherGaps
	case SoftConsecutive:
		return w.Consecutive
	}
	return 0
}

// subjectSpreadThreshold caps same-subject periods on one day before the
// spread penalty starts accruing.
const subjectSpreadThreshold = 2

// defaultMaxConsecutive applies when a requirement leaves max-consecutive unset.
const defaultMaxConsecutive = 2

// EvaluationResult is the contract of the constraint model: the list of hard
// violations plus the weighted soft penalty.
type EvaluationResult struct {
	Hard        []Violation `json:"hard"`
	SoftPenalty float64     `json:"soft_penalty"`
}

// Feasible reports whether the schedule satisfies every hard constraint.
func (r EvaluationResult) Feasible() bool { return len(r.Hard) == 0 }

// Evaluate checks a candidate schedule against the full constraint set.
func Evaluate(idx *Index, s *Schedule, w Weights) EvaluationResult {
	result := EvaluationResult{Hard: hardViolations(idx, s)}
	for _, kind := range SoftKinds() {
		weight := w.of(kind)
		if weight <= 0 {
			continue
		}
		result.SoftPenalty += weight * softPenalty(kind, idx, s)
	}
	return result
}

func hardViolations(idx *Index, s *Schedule) []Violation {
	ds := idx.Dataset()
	var out []Violation

	type daySlot struct {
		day  string
		slot int
	}
	teacherCells := make(map[string]map[daySlot][]Cell)
	roomCells := make(map[string]map[daySlot][]Cell)
	counts := make(map[string]map[string]int) // section -> subject -> periods

	for cell, a := range s.cells {
		if counts[cell.SectionID] == nil {
			counts[cell.SectionID] = make(map[string]int)
		}
		counts[cell.SectionID][a.SubjectID]++

		key := daySlot{day: cell.Day, slot: cell.Slot}
		if a.TeacherID != "" {
			if teacherCells[a.TeacherID] == nil {
				teacherCells[a.TeacherID] = make(map[daySlot][]Cell)
			}
			teacherCells[a.TeacherID][key] = append(teacherCells[a.TeacherID][key], cell)

			if !idx.IsAvailable(a.TeacherID, cell.Day, cell.Slot) {
				out = append(out, Violation{
					Kind:      HardTeacherUnavailable,
					SectionID: cell.SectionID,
					SubjectID: a.SubjectID,
					TeacherID: a.TeacherID,
					Day:       cell.Day,
					Slot:      cell.Slot,
					Detail:    fmt.Sprintf("teacher %s is unavailable on %s slot %d", a.TeacherID, cell.Day, cell.Slot),
				})
			}
			if !containsString(idx.TeachersFor(cell.SectionID, a.SubjectID), a.TeacherID) {
				out = append(out, Violation{
					Kind:      HardTeacherNotEligible,
					SectionID: cell.SectionID,
					SubjectID: a.SubjectID,
					TeacherID: a.TeacherID,
					Day:       cell.Day,
					Slot:      cell.Slot,
					Detail:    fmt.Sprintf("teacher %s is not eligible for subject %s in section %s", a.TeacherID, a.SubjectID, cell.SectionID),
				})
			}
		}
		if a.RoomID != "" {
			if roomCells[a.RoomID] == nil {
				roomCells[a.RoomID] = make(map[daySlot][]Cell)
			}
			roomCells[a.RoomID][key] = append(roomCells[a.RoomID][key], cell)
		}
	}

	for teacherID, byCell := range teacherCells {
		for key, cells := range byCell {
			if len(cells) < 2 {
				continue
			}
			sortCells(cells)
			for _, cell := range cells[1:] {
				a := s.cells[cell]
				out = append(out, Violation{
					Kind:      HardTeacherDoubleBooked,
					SectionID: cell.SectionID,
					SubjectID: a.SubjectID,
					TeacherID: teacherID,
					Day:       key.day,
					Slot:      key.slot,
					Detail:    fmt.Sprintf("teacher %s booked for %d sections on %s slot %d", teacherID, len(cells), key.day, key.slot),
				})
			}
		}
	}

	capacityBySection := make(map[string]int, len(ds.Sections))
	for _, info := range ds.Sections {
		capacityBySection[info.ID] = info.StudentCount
	}
	roomCapacity := make(map[string]int, len(ds.Rooms))
	for _, room := range ds.Rooms {
		roomCapacity[room.ID] = room.Capacity
	}
	for roomID, byCell := range roomCells {
		for key, cells := range byCell {
			sortCells(cells)
			if len(cells) > 1 {
				for _, cell := range cells[1:] {
					a := s.cells[cell]
					out = append(out, Violation{
						Kind:      HardRoomDoubleBooked,
						SectionID: cell.SectionID,
						SubjectID: a.SubjectID,
						RoomID:    roomID,
						Day:       key.day,
						Slot:      key.slot,
						Detail:    fmt.Sprintf("room %s booked %d times on %s slot %d", roomID, len(cells), key.day, key.slot),
					})
				}
			}
			for _, cell := range cells {
				if capacityBySection[cell.SectionID] > roomCapacity[roomID] {
					a := s.cells[cell]
					out = append(out, Violation{
						Kind:      HardRoomOverCapacity,
						SectionID: cell.SectionID,
						SubjectID: a.SubjectID,
						RoomID:    roomID,
						Day:       key.day,
						Slot:      key.slot,
						Detail: fmt.Sprintf("room %s capacity %d below section %s size %d",
							roomID, roomCapacity[roomID], cell.SectionID, capacityBySection[cell.SectionID]),
					})
				}
			}
		}
	}

	for _, info := range ds.Sections {
		assigned := counts[info.ID]
		required := make(map[string]bool)
		for _, req := range ds.Requirements[info.ID] {
			required[req.SubjectID] = true
			got := assigned[req.SubjectID]
			if got != req.PeriodsPerWeek {
				out = append(out, Violation{
					Kind:      HardPeriodCountMismatch,
					SectionID: info.ID,
					SubjectID: req.SubjectID,
					Detail: fmt.Sprintf("section %s subject %s has %d periods, requires %d",
						info.ID, req.SubjectID, got, req.PeriodsPerWeek),
				})
			}
		}
		for subjectID, got := range assigned {
			if !required[subjectID] {
				out = append(out, Violation{
					Kind:      HardPeriodCountMismatch,
					SectionID: info.ID,
					SubjectID: subjectID,
					Detail:    fmt.Sprintf("section %s has %d periods of unrequested subject %s", info.ID, got, subjectID),
				})
			}
		}
	}

	return out
}

func softPenalty(kind SoftKind, idx *Index, s *Schedule) float64 {
	switch kind {
	case SoftLoadBalance:
		return loadBalancePenalty(idx, s)
	case SoftSubjectSpread:
		return subjectSpreadPenalty(idx, s)
	case SoftTeacherGaps:
		return teacherGapPenalty(idx, s)
	case SoftConsecutive:
		return consecutivePenalty(idx, s)
	}
	return 0
}

// loadBalancePenalty is the summed variance of per-teacher daily load.
func loadBalancePenalty(idx *Index, s *Schedule) float64 {
	ds := idx.Dataset()
	daily := make(map[string]map[string]int)
	for cell, a := range s.cells {
		if a.TeacherID == "" {
			continue
		}
		if daily[a.TeacherID] == nil {
			daily[a.TeacherID] = make(map[string]int)
		}
		daily[a.TeacherID][cell.Day]++
	}

	var penalty float64
	for _, counts := range daily {
		total := 0
		for _, c := range counts {
			total += c
		}
		mean := float64(total) / float64(len(ds.Days))
		var variance float64
		for _, day := range ds.Days {
			diff := float64(counts[day]) - mean
			variance += diff * diff
		}
		penalty += variance / float64(len(ds.Days))
	}
	return penalty
}

// subjectSpreadPenalty charges same-subject periods clustered on one day.
func subjectSpreadPenalty(idx *Index, s *Schedule) float64 {
	type key struct {
		section, day, subject string
	}
	counts := make(map[key]int)
	for cell, a := range s.cells {
		counts[key{section: cell.SectionID, day: cell.Day, subject: a.SubjectID}]++
	}
	var penalty float64
	for _, count := range counts {
		if count > subjectSpreadThreshold {
			penalty += float64(count - subjectSpreadThreshold)
		}
	}
	return penalty
}

// teacherGapPenalty charges idle slots between a teacher's first and last
// period of a day.
func teacherGapPenalty(idx *Index, s *Schedule) float64 {
	type key struct {
		teacher, day string
	}
	positions := make(map[key][]int)
	for cell, a := range s.cells {
		if a.TeacherID == "" {
			continue
		}
		k := key{teacher: a.TeacherID, day: cell.Day}
		positions[k] = append(positions[k], idx.SlotPosition(cell.Slot))
	}
	var penalty float64
	for _, pos := range positions {
		if len(pos) < 2 {
			continue
		}
		sort.Ints(pos)
		for i := 0; i < len(pos)-1; i++ {
			if gap := pos[i+1] - pos[i] - 1; gap > 0 {
				penalty += float64(gap)
			}
		}
	}
	return penalty
}

// consecutivePenalty charges same-subject runs longer than the requirement's
// max-consecutive bound.
func consecutivePenalty(idx *Index, s *Schedule) float64 {
	ds := idx.Dataset()
	maxRun := make(map[string]map[string]int, len(ds.Sections))
	for sectionID, reqs := range ds.Requirements {
		maxRun[sectionID] = make(map[string]int, len(reqs))
		for _, req := range reqs {
			limit := req.MaxConsecutive
			if limit <= 0 {
				limit = defaultMaxConsecutive
			}
			maxRun[sectionID][req.SubjectID] = limit
		}
	}

	var penalty float64
	for _, info := range ds.Sections {
		for _, day := range ds.Days {
			row := s.SectionDayAssignments(info.ID, day)
			var prevSubject string
			run := 0
			for _, slot := range ds.Slots {
				a, ok := row[slot]
				if !ok || a.SubjectID != prevSubject {
					prevSubject = ""
					run = 0
					if ok {
						prevSubject = a.SubjectID
						run = 1
					}
					continue
				}
				run++
				if limit := maxRun[info.ID][a.SubjectID]; limit > 0 && run > limit {
					penalty++
				}
			}
		}
	}
	return penalty
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func sortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].SectionID != cells[j].SectionID {
			return cells[i].SectionID < cells[j].SectionID
		}
		if cells[i].Day != cells[j].Day {
			return cells[i].Day < cells[j].Day
		}
		return cells[i].Slot < cells[j].Slot
	})
}
