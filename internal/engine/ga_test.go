package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

func solveSeed(t *testing.T, idx *Index, seed int64) *Schedule {
	t.Helper()
	gen := NewGenerator(idx, CSPConfig{Rand: rand.New(rand.NewSource(seed))})
	s, infeasible := gen.Solve()
	require.Nil(t, infeasible)
	return s
}

func TestOptimizerNeverRegressesBelowSeeds(t *testing.T) {
	idx := NewIndex(testDataset())
	seeds := []*Schedule{
		solveSeed(t, idx, 1),
		solveSeed(t, idx, 2),
	}

	opt := NewOptimizer(idx, DefaultWeights(), GAConfig{
		PopulationSize: 8,
		Generations:    30,
		Rand:           rand.New(rand.NewSource(7)),
	})

	seedBest := opt.Fitness(seeds[0])
	if f := opt.Fitness(seeds[1]); f < seedBest {
		seedBest = f
	}

	best, fitness, stats := opt.Optimize(seeds)
	require.NotNil(t, best)
	assert.LessOrEqual(t, fitness, seedBest)
	assert.Greater(t, stats.Generations, 0)
}

func TestOptimizerWinnerStaysFeasible(t *testing.T) {
	idx := NewIndex(testDataset())
	seeds := []*Schedule{solveSeed(t, idx, 3)}

	opt := NewOptimizer(idx, DefaultWeights(), GAConfig{
		PopulationSize: 8,
		Generations:    25,
		MutationRate:   0.4,
		Rand:           rand.New(rand.NewSource(11)),
	})

	best, _, _ := opt.Optimize(seeds)
	require.NotNil(t, best)
	assert.Empty(t, PostGenerationCheck(idx, best))

	countsA := subjectCounts(best, "sec-a")
	assert.Equal(t, 4, countsA["math"])
	assert.Equal(t, 3, countsA["sci"])
	assert.Equal(t, 3, countsA["eng"])
}

func TestOptimizerPlateauStopsOnOptimalInstance(t *testing.T) {
	ds := &Dataset{
		TermID: "term-1",
		Days:   []string{models.DayMonday},
		Slots:  []int{1, 2},
		Sections: []SectionInfo{
			{ID: "sec-x", ClassName: "9", SectionName: "X", StudentCount: 20},
		},
		Requirements: map[string][]Requirement{
			"sec-x": {{SubjectID: "math", PeriodsPerWeek: 1}},
		},
		Eligible: map[string]map[string][]string{
			"sec-x": {"math": {"t-1"}},
		},
		Unavailable: map[string]map[string]map[int]bool{},
	}
	idx := NewIndex(ds)
	seed := solveSeed(t, idx, 1)

	opt := NewOptimizer(idx, DefaultWeights(), GAConfig{
		PopulationSize: 4,
		Generations:    50,
		PlateauWindow:  3,
		Rand:           rand.New(rand.NewSource(5)),
	})

	_, fitness, stats := opt.Optimize([]*Schedule{seed})
	assert.Zero(t, fitness)
	assert.True(t, stats.PlateauStopped)
	assert.Less(t, stats.Generations, 50)
}

func TestFitnessPenalizesHardViolations(t *testing.T) {
	idx := NewIndex(testDataset())
	opt := NewOptimizer(idx, DefaultWeights(), GAConfig{LargePenalty: 10000})

	s := NewSchedule()
	s.Set(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: 1}, Assignment{SubjectID: "math", TeacherID: "t-ana"})
	s.Set(Cell{SectionID: "sec-b", Day: models.DayMonday, Slot: 1}, Assignment{SubjectID: "math", TeacherID: "t-ana"})

	assert.GreaterOrEqual(t, opt.Fitness(s), 10000.0)
}

func TestOptimizerEmptySeeds(t *testing.T) {
	idx := NewIndex(testDataset())
	opt := NewOptimizer(idx, DefaultWeights(), GAConfig{})

	best, fitness, _ := opt.Optimize(nil)
	assert.Nil(t, best)
	assert.Zero(t, fitness)
}
