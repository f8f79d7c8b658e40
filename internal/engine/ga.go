package engine

import (
	"math/rand"
	"runtime"
	"sync"
	"time"
)

// GAConfig tunes the genetic optimizer.
type GAConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	PlateauWindow  int
	Workers        int
	LargePenalty   float64
	Deadline       time.Time
	Rand           *rand.Rand
}

// OptimizerStats summarises one optimization pass.
type OptimizerStats struct {
	Generations        int
	PlateauStopped     bool
	RepairedUnfeasible int
}

// Optimizer evolves a population of feasible schedules to improve soft
// fitness. Hard violations stay penalized in the fitness because crossover
// and mutation can introduce them before repair.
type Optimizer struct {
	idx     *Index
	weights Weights
	cfg     GAConfig
}

// NewOptimizer builds an optimizer over the shared read-only index.
func NewOptimizer(idx *Index, weights Weights, cfg GAConfig) *Optimizer {
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = 16
	}
	if cfg.Generations <= 0 {
		cfg.Generations = 80
	}
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = 0.15
	}
	if cfg.PlateauWindow <= 0 {
		cfg.PlateauWindow = 12
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.LargePenalty <= 0 {
		cfg.LargePenalty = 10000
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Optimizer{idx: idx, weights: weights, cfg: cfg}
}

// Fitness combines hard violations and soft penalties; lower is better.
func (o *Optimizer) Fitness(s *Schedule) float64 {
	result := Evaluate(o.idx, s, o.weights)
	return float64(len(result.Hard))*o.cfg.LargePenalty + result.SoftPenalty
}

// Optimize evolves the seeded population and returns the fittest schedule,
// its fitness, and search statistics. The best individual is carried across
// generations so the returned fitness never regresses below any seed.
func (o *Optimizer) Optimize(seeds []*Schedule) (*Schedule, float64, OptimizerStats) {
	stats := OptimizerStats{}
	rng := o.cfg.Rand

	population := make([]*Schedule, 0, o.cfg.PopulationSize)
	for _, seed := range seeds {
		if seed != nil {
			population = append(population, seed.Clone())
		}
	}
	if len(population) == 0 {
		return nil, 0, stats
	}
	for len(population) < o.cfg.PopulationSize {
		population = append(population, population[rng.Intn(len(population))].Clone())
	}

	scores := make([]float64, len(population))
	o.evaluateAll(population, scores)

	bestIdx := argmin(scores)
	best := population[bestIdx].Clone()
	bestFitness := scores[bestIdx]
	sinceImprovement := 0

	for gen := 0; gen < o.cfg.Generations; gen++ {
		if !o.cfg.Deadline.IsZero() && time.Now().After(o.cfg.Deadline) {
			break
		}
		stats.Generations++

		next := make([]*Schedule, len(population))
		next[0] = best.Clone() // elitism

		for i := 1; i < len(population); i++ {
			p1 := population[o.tournament(scores, rng)]
			p2 := population[o.tournament(scores, rng)]
			child, repaired := o.crossover(p1, p2, rng)
			if child == nil {
				child = p1.Clone()
			}
			if repaired {
				stats.RepairedUnfeasible++
			}
			if rng.Float64() < o.cfg.MutationRate {
				o.mutate(child, rng)
			}
			next[i] = child
		}

		population = next
		o.evaluateAll(population, scores)

		genBest := argmin(scores)
		if scores[genBest] < bestFitness {
			bestFitness = scores[genBest]
			best = population[genBest].Clone()
			sinceImprovement = 0
		} else {
			sinceImprovement++
		}
		if sinceImprovement >= o.cfg.PlateauWindow {
			stats.PlateauStopped = true
			break
		}
	}

	return best, bestFitness, stats
}

// evaluateAll scores the population in parallel. Fitness evaluation shares
// only the read-only index, so chunks of the population fan out across
// workers with no locking.
func (o *Optimizer) evaluateAll(population []*Schedule, scores []float64) {
	workers := o.cfg.Workers
	if workers > len(population) {
		workers = len(population)
	}
	if workers <= 1 {
		for i, s := range population {
			scores[i] = o.Fitness(s)
		}
		return
	}

	chunk := (len(population) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start, end := w*chunk, (w+1)*chunk
		if start >= len(population) {
			break
		}
		if end > len(population) {
			end = len(population)
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				scores[i] = o.Fitness(population[i])
			}
		}(start, end)
	}
	wg.Wait()
}

// tournament picks the fitter of k random individuals (k=3).
func (o *Optimizer) tournament(scores []float64, rng *rand.Rand) int {
	best := rng.Intn(len(scores))
	for i := 0; i < 2; i++ {
		candidate := rng.Intn(len(scores))
		if scores[candidate] < scores[best] {
			best = candidate
		}
	}
	return best
}

// crossover exchanges whole-day rows for a random subset of sections between
// the parents, then repairs introduced hard violations with bounded local
// re-assignment. Returns (nil, _) when the child cannot be repaired.
func (o *Optimizer) crossover(p1, p2 *Schedule, rng *rand.Rand) (*Schedule, bool) {
	ds := o.idx.Dataset()
	child := p1.Clone()

	swapped := false
	for _, info := range ds.Sections {
		if rng.Float64() >= 0.5 {
			continue
		}
		day := ds.Days[rng.Intn(len(ds.Days))]
		for _, slot := range ds.Slots {
			cell := Cell{SectionID: info.ID, Day: day, Slot: slot}
			child.Unset(cell)
			if a, ok := p2.At(cell); ok {
				child.Set(cell, a)
			}
		}
		swapped = true
	}
	if !swapped {
		return child, false
	}

	if o.repair(child, rng) {
		return child, true
	}
	return nil, false
}

// maxRepairPasses bounds local re-assignment after crossover.
const maxRepairPasses = 4

// repair removes cells named in hard violations, then re-places missing
// periods into legal free cells. Returns false when the child stays broken.
func (o *Optimizer) repair(s *Schedule, rng *rand.Rand) bool {
	for pass := 0; pass < maxRepairPasses; pass++ {
		violations := hardViolations(o.idx, s)
		if len(violations) == 0 {
			return true
		}

		for _, v := range violations {
			switch v.Kind {
			case HardTeacherDoubleBooked, HardTeacherUnavailable, HardTeacherNotEligible,
				HardRoomDoubleBooked, HardRoomOverCapacity:
				s.Unset(Cell{SectionID: v.SectionID, Day: v.Day, Slot: v.Slot})
			case HardPeriodCountMismatch:
				o.trimSurplus(s, v.SectionID, v.SubjectID)
			}
		}
		o.fillMissing(s, rng)
	}
	return len(hardViolations(o.idx, s)) == 0
}

// trimSurplus removes same-subject periods beyond the requirement.
func (o *Optimizer) trimSurplus(s *Schedule, sectionID, subjectID string) {
	ds := o.idx.Dataset()
	required := 0
	for _, req := range ds.Requirements[sectionID] {
		if req.SubjectID == subjectID {
			required = req.PeriodsPerWeek
		}
	}

	var owned []Cell
	for _, entry := range s.Entries(DayOrderOf(ds.Days)) {
		if entry.Cell.SectionID == sectionID && entry.Assignment.SubjectID == subjectID {
			owned = append(owned, entry.Cell)
		}
	}
	for len(owned) > required {
		last := owned[len(owned)-1]
		s.Unset(last)
		owned = owned[:len(owned)-1]
	}
}

// fillMissing greedily places under-assigned periods into legal free cells.
func (o *Optimizer) fillMissing(s *Schedule, rng *rand.Rand) {
	ds := o.idx.Dataset()
	teacherBusy, roomBusy := occupancy(s)

	for _, info := range ds.Sections {
		counts := make(map[string]int)
		occupied := make(map[string]map[int]bool, len(ds.Days))
		for _, day := range ds.Days {
			occupied[day] = make(map[int]bool, len(ds.Slots))
		}
		for cell, a := range s.cells {
			if cell.SectionID != info.ID {
				continue
			}
			counts[a.SubjectID]++
			occupied[cell.Day][cell.Slot] = true
		}

		for _, req := range ds.Requirements[info.ID] {
			for counts[req.SubjectID] < req.PeriodsPerWeek {
				cell, a, ok := o.findSpot(info, req, occupied, teacherBusy, roomBusy, rng)
				if !ok {
					break
				}
				s.Set(cell, a)
				counts[req.SubjectID]++
				occupied[cell.Day][cell.Slot] = true
				if a.TeacherID != "" {
					teacherBusy[busyKey{id: a.TeacherID, day: cell.Day, slot: cell.Slot}] = true
				}
				if a.RoomID != "" {
					roomBusy[busyKey{id: a.RoomID, day: cell.Day, slot: cell.Slot}] = true
				}
			}
		}
	}
}

type busyKey struct {
	id   string
	day  string
	slot int
}

// occupancy builds teacher and room busy sets for a schedule.
func occupancy(s *Schedule) (map[busyKey]bool, map[busyKey]bool) {
	teacherBusy := make(map[busyKey]bool)
	roomBusy := make(map[busyKey]bool)
	for cell, a := range s.cells {
		if a.TeacherID != "" {
			teacherBusy[busyKey{id: a.TeacherID, day: cell.Day, slot: cell.Slot}] = true
		}
		if a.RoomID != "" {
			roomBusy[busyKey{id: a.RoomID, day: cell.Day, slot: cell.Slot}] = true
		}
	}
	return teacherBusy, roomBusy
}

func (o *Optimizer) findSpot(
	info SectionInfo,
	req Requirement,
	occupied map[string]map[int]bool,
	teacherBusy, roomBusy map[busyKey]bool,
	rng *rand.Rand,
) (Cell, Assignment, bool) {
	ds := o.idx.Dataset()
	dayStart := rng.Intn(len(ds.Days))
	for i := 0; i < len(ds.Days); i++ {
		day := ds.Days[(dayStart+i)%len(ds.Days)]
		for _, slot := range ds.Slots {
			if occupied[day][slot] {
				continue
			}
			for _, teacherID := range o.idx.TeachersFor(info.ID, req.SubjectID) {
				if !o.idx.IsAvailable(teacherID, day, slot) {
					continue
				}
				if teacherBusy[busyKey{id: teacherID, day: day, slot: slot}] {
					continue
				}
				roomID := ""
				if req.RoomType != "" {
					found := false
					for _, candidate := range o.idx.RoomsOfType(req.RoomType, info.StudentCount) {
						if !roomBusy[busyKey{id: candidate, day: day, slot: slot}] {
							roomID = candidate
							found = true
							break
						}
					}
					if !found {
						continue
					}
				}
				cell := Cell{SectionID: info.ID, Day: day, Slot: slot}
				return cell, Assignment{SubjectID: req.SubjectID, TeacherID: teacherID, RoomID: roomID}, true
			}
		}
	}
	return Cell{}, Assignment{}, false
}

// mutate either swaps two cells of one section or re-solves one of its days,
// keeping the result hard-feasible or reverting.
func (o *Optimizer) mutate(s *Schedule, rng *rand.Rand) {
	ds := o.idx.Dataset()
	if len(ds.Sections) == 0 {
		return
	}
	info := ds.Sections[rng.Intn(len(ds.Sections))]

	backup := s.Clone()
	if rng.Float64() < 0.5 {
		o.swapCells(s, info, rng)
	} else {
		o.reshuffleDay(s, info, rng)
	}
	if len(hardViolations(o.idx, s)) > 0 {
		*s = *backup
	}
}

func (o *Optimizer) swapCells(s *Schedule, info SectionInfo, rng *rand.Rand) {
	ds := o.idx.Dataset()
	pick := func() Cell {
		day := ds.Days[rng.Intn(len(ds.Days))]
		slot := ds.Slots[rng.Intn(len(ds.Slots))]
		return Cell{SectionID: info.ID, Day: day, Slot: slot}
	}
	c1, c2 := pick(), pick()
	if c1 == c2 {
		return
	}
	a1, ok1 := s.At(c1)
	a2, ok2 := s.At(c2)
	s.Unset(c1)
	s.Unset(c2)
	if ok1 {
		s.Set(c2, a1)
	}
	if ok2 {
		s.Set(c1, a2)
	}
}

// reshuffleDay clears one day of the section and refills it greedily.
func (o *Optimizer) reshuffleDay(s *Schedule, info SectionInfo, rng *rand.Rand) {
	ds := o.idx.Dataset()
	day := ds.Days[rng.Intn(len(ds.Days))]
	for _, slot := range ds.Slots {
		s.Unset(Cell{SectionID: info.ID, Day: day, Slot: slot})
	}
	o.fillMissing(s, rng)
}

func argmin(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return best
}
