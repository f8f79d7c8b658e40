package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// InfeasibleError reports the cell the backtracking search could not fill,
// or that the search budget ran out before a complete assignment was found.
type InfeasibleError struct {
	SectionID       string `json:"section_id,omitempty"`
	Day             string `json:"day,omitempty"`
	Slot            int    `json:"slot,omitempty"`
	Detail          string `json:"detail"`
	BudgetExhausted bool   `json:"budget_exhausted"`
}

func (e *InfeasibleError) Error() string {
	if e.BudgetExhausted {
		return fmt.Sprintf("search budget exhausted: %s", e.Detail)
	}
	return fmt.Sprintf("no legal value for section %s on %s slot %d: %s", e.SectionID, e.Day, e.Slot, e.Detail)
}

// CSPConfig bounds one backtracking search.
type CSPConfig struct {
	IterationLimit int
	Deadline       time.Time
	// Rand randomizes tie-breaking for population diversity. Nil keeps the
	// search deterministic.
	Rand *rand.Rand
}

// Generator produces one hard-constraint-feasible schedule per Solve call.
type Generator struct {
	idx        *Index
	cfg        CSPConfig
	iterations int
	backtracks int
}

// NewGenerator builds a generator over the shared index.
func NewGenerator(idx *Index, cfg CSPConfig) *Generator {
	if cfg.IterationLimit <= 0 {
		cfg.IterationLimit = 200000
	}
	return &Generator{idx: idx, cfg: cfg}
}

// Backtracks reports how many undo steps the last Solve performed.
func (g *Generator) Backtracks() int { return g.backtracks }

// value is one (subject, teacher, room) option for a cell. The zero value
// with empty SubjectID means "leave the cell free", legal only while the
// section has slack.
type value struct {
	subject string
	teacher string
	room    string
	empty   bool
}

// searchState is the explicit mutable scratch state threaded through the
// recursion. Every mutation performed by place is captured in an undo record
// so backtracking restores exactly the pre-assignment state.
type searchState struct {
	schedule    *Schedule
	remaining   map[string]map[string]int // section -> subject -> periods left
	demand      map[string]int            // section -> total periods left
	freeCells   map[string]int            // section -> unassigned cells left
	teacherBusy map[string]map[string]map[int]bool
	roomBusy    map[string]map[string]map[int]bool
	unassigned  map[Cell]bool
}

// undo captures what one assignment mutated.
type undo struct {
	cell Cell
	val  value
}

func (g *Generator) newState() *searchState {
	ds := g.idx.Dataset()
	st := &searchState{
		schedule:    NewSchedule(),
		remaining:   make(map[string]map[string]int),
		demand:      make(map[string]int),
		freeCells:   make(map[string]int),
		teacherBusy: make(map[string]map[string]map[int]bool),
		roomBusy:    make(map[string]map[string]map[int]bool),
		unassigned:  make(map[Cell]bool),
	}
	for _, info := range ds.Sections {
		st.remaining[info.ID] = make(map[string]int)
		for _, req := range ds.Requirements[info.ID] {
			st.remaining[info.ID][req.SubjectID] += req.PeriodsPerWeek
			st.demand[info.ID] += req.PeriodsPerWeek
		}
		st.freeCells[info.ID] = ds.CellsPerWeek()
		for _, day := range ds.Days {
			for _, slot := range ds.Slots {
				st.unassigned[Cell{SectionID: info.ID, Day: day, Slot: slot}] = true
			}
		}
	}
	return st
}

func (st *searchState) busy(m map[string]map[string]map[int]bool, id, day string, slot int) bool {
	return m[id][day][slot]
}

func (st *searchState) mark(m map[string]map[string]map[int]bool, id, day string, slot int, v bool) {
	if m[id] == nil {
		m[id] = make(map[string]map[int]bool)
	}
	if m[id][day] == nil {
		m[id][day] = make(map[int]bool)
	}
	if v {
		m[id][day][slot] = true
	} else {
		delete(m[id][day], slot)
	}
}

// place assigns a value to a cell and returns the undo record.
func (st *searchState) place(cell Cell, v value) undo {
	delete(st.unassigned, cell)
	st.freeCells[cell.SectionID]--
	if !v.empty {
		st.schedule.Set(cell, Assignment{SubjectID: v.subject, TeacherID: v.teacher, RoomID: v.room})
		st.remaining[cell.SectionID][v.subject]--
		st.demand[cell.SectionID]--
		if v.teacher != "" {
			st.mark(st.teacherBusy, v.teacher, cell.Day, cell.Slot, true)
		}
		if v.room != "" {
			st.mark(st.roomBusy, v.room, cell.Day, cell.Slot, true)
		}
	}
	return undo{cell: cell, val: v}
}

// revert restores exactly the state place captured.
func (st *searchState) revert(u undo) {
	st.unassigned[u.cell] = true
	st.freeCells[u.cell.SectionID]++
	if !u.val.empty {
		st.schedule.Unset(u.cell)
		st.remaining[u.cell.SectionID][u.val.subject]++
		st.demand[u.cell.SectionID]++
		if u.val.teacher != "" {
			st.mark(st.teacherBusy, u.val.teacher, u.cell.Day, u.cell.Slot, false)
		}
		if u.val.room != "" {
			st.mark(st.roomBusy, u.val.room, u.cell.Day, u.cell.Slot, false)
		}
	}
}

// slack is how many cells a section may leave free and still meet demand.
func (st *searchState) slack(sectionID string) int {
	return st.freeCells[sectionID] - st.demand[sectionID]
}

// Solve runs the backtracking search: most-constrained cell first, least
// constraining value first, explicit undo on dead ends.
func (g *Generator) Solve() (*Schedule, *InfeasibleError) {
	g.iterations = 0
	g.backtracks = 0
	st := g.newState()

	if infeasible := g.search(st); infeasible != nil {
		return nil, infeasible
	}
	return st.schedule, nil
}

func (g *Generator) search(st *searchState) *InfeasibleError {
	cell, values, done, dead := g.selectCell(st)
	if done {
		return nil
	}
	if dead != nil {
		return dead
	}

	for _, v := range values {
		if g.iterations >= g.cfg.IterationLimit {
			return &InfeasibleError{
				SectionID:       cell.SectionID,
				Day:             cell.Day,
				Slot:            cell.Slot,
				Detail:          fmt.Sprintf("iteration limit %d reached", g.cfg.IterationLimit),
				BudgetExhausted: true,
			}
		}
		if !g.cfg.Deadline.IsZero() && time.Now().After(g.cfg.Deadline) {
			return &InfeasibleError{
				SectionID:       cell.SectionID,
				Day:             cell.Day,
				Slot:            cell.Slot,
				Detail:          "time budget exceeded",
				BudgetExhausted: true,
			}
		}
		g.iterations++

		u := st.place(cell, v)
		infeasible := g.search(st)
		if infeasible == nil {
			return nil
		}
		if infeasible.BudgetExhausted {
			return infeasible
		}
		st.revert(u)
		g.backtracks++
	}

	return &InfeasibleError{
		SectionID: cell.SectionID,
		Day:       cell.Day,
		Slot:      cell.Slot,
		Detail:    "domain exhausted",
	}
}

// selectCell picks the unassigned cell with the fewest legal values among
// sections that still have demand, ties broken by earliest day and slot.
func (g *Generator) selectCell(st *searchState) (Cell, []value, bool, *InfeasibleError) {
	ds := g.idx.Dataset()
	dayOrder := DayOrderOf(ds.Days)

	anyDemand := false
	var best Cell
	var bestValues []value
	bestCount := -1

	for _, info := range ds.Sections {
		if st.demand[info.ID] == 0 {
			continue
		}
		anyDemand = true
		for _, day := range ds.Days {
			for _, slot := range ds.Slots {
				cell := Cell{SectionID: info.ID, Day: day, Slot: slot}
				if !st.unassigned[cell] {
					continue
				}
				values := g.legalValues(st, cell)
				if len(values) == 0 {
					return cell, nil, false, &InfeasibleError{
						SectionID: cell.SectionID,
						Day:       cell.Day,
						Slot:      cell.Slot,
						Detail:    "no eligible available teacher or room for any remaining subject",
					}
				}
				if bestCount == -1 || len(values) < bestCount || (len(values) == bestCount && earlier(cell, best, dayOrder)) {
					best = cell
					bestValues = values
					bestCount = len(values)
				}
			}
		}
	}

	if !anyDemand {
		return Cell{}, nil, true, nil
	}
	return best, bestValues, false, nil
}

func earlier(a, b Cell, dayOrder map[string]int) bool {
	if a.SectionID != b.SectionID {
		return a.SectionID < b.SectionID
	}
	if dayOrder[a.Day] != dayOrder[b.Day] {
		return dayOrder[a.Day] < dayOrder[b.Day]
	}
	return a.Slot < b.Slot
}

// legalValues enumerates (subject, teacher, room) options for a cell ordered
// least-constraining first: scarcer subjects go early, and for each subject
// the teacher with the most remaining free cells is preferred so fewer
// future options are foreclosed.
func (g *Generator) legalValues(st *searchState, cell Cell) []value {
	ds := g.idx.Dataset()
	var out []value
	var options []scoredValue

	reqs := ds.Requirements[cell.SectionID]
	section, _ := ds.Section(cell.SectionID)
	for _, req := range reqs {
		if st.remaining[cell.SectionID][req.SubjectID] == 0 {
			continue
		}
		for _, teacherID := range g.idx.TeachersFor(cell.SectionID, req.SubjectID) {
			if !g.idx.IsAvailable(teacherID, cell.Day, cell.Slot) {
				continue
			}
			if st.busy(st.teacherBusy, teacherID, cell.Day, cell.Slot) {
				continue
			}
			roomID, ok := g.pickRoom(st, cell, req, section.StudentCount)
			if !ok {
				continue
			}
			options = append(options, scoredValue{
				v:     value{subject: req.SubjectID, teacher: teacherID, room: roomID},
				score: g.freeCapacity(st, teacherID),
			})
		}
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].score > options[j].score
	})
	if g.cfg.Rand != nil {
		shuffleTies(g.cfg.Rand, options)
	}
	for _, opt := range options {
		out = append(out, opt.v)
	}

	// Leaving the cell free is legal only while the section has slack; it is
	// always the last resort so demand is consumed as early as possible.
	if st.slack(cell.SectionID) > 0 {
		out = append(out, value{empty: true})
	}
	return out
}

// pickRoom books the smallest free, adequate room of the required type.
// Requirements without a room type stay in the section homeroom (no booking).
func (g *Generator) pickRoom(st *searchState, cell Cell, req Requirement, studentCount int) (string, bool) {
	if req.RoomType == "" {
		return "", true
	}
	for _, roomID := range g.idx.RoomsOfType(req.RoomType, studentCount) {
		if !st.busy(st.roomBusy, roomID, cell.Day, cell.Slot) {
			return roomID, true
		}
	}
	return "", false
}

// freeCapacity approximates how many cells a teacher still has open.
func (g *Generator) freeCapacity(st *searchState, teacherID string) int {
	busy := 0
	for _, bySlot := range st.teacherBusy[teacherID] {
		busy += len(bySlot)
	}
	return g.idx.AvailableCells(teacherID) - busy
}

type scoredValue struct {
	v     value
	score int
}

func shuffleTies(rng *rand.Rand, options []scoredValue) {
	start := 0
	for i := 1; i <= len(options); i++ {
		if i == len(options) || options[i].score != options[start].score {
			if i-start > 1 {
				rng.Shuffle(i-start, func(a, b int) {
					options[start+a], options[start+b] = options[start+b], options[start+a]
				})
			}
			start = i
		}
	}
}
