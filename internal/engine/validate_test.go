package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func problemKinds(problems []Problem) map[ProblemKind]int {
	kinds := make(map[ProblemKind]int)
	for _, p := range problems {
		kinds[p.Kind]++
	}
	return kinds
}

func TestPreflightPassesCompleteDataset(t *testing.T) {
	idx := NewIndex(testDataset())
	assert.Empty(t, Preflight(idx))
}

func TestPreflightFlagsMissingRequirements(t *testing.T) {
	ds := testDataset()
	delete(ds.Requirements, "sec-b")
	idx := NewIndex(ds)

	kinds := problemKinds(Preflight(idx))
	assert.Equal(t, 1, kinds[ProblemMissingRequirements])
}

func TestPreflightFlagsLoadExceedingWeek(t *testing.T) {
	ds := testDataset()
	ds.Requirements["sec-a"] = []Requirement{
		{SubjectID: "math", PeriodsPerWeek: 13},
	}
	ds.Eligible["sec-a"] = map[string][]string{"math": {"t-ana"}}
	idx := NewIndex(ds)

	kinds := problemKinds(Preflight(idx))
	assert.Equal(t, 1, kinds[ProblemLoadExceedsWeek])
}

func TestPreflightFlagsMissingTeacherAndRoom(t *testing.T) {
	ds := testDataset()
	delete(ds.Eligible["sec-a"], "sci")
	ds.Requirements["sec-b"] = append(ds.Requirements["sec-b"], Requirement{
		SubjectID: "chem", PeriodsPerWeek: 1, RoomType: "OBSERVATORY",
	})
	ds.Eligible["sec-b"]["chem"] = []string{"t-ben"}
	idx := NewIndex(ds)

	kinds := problemKinds(Preflight(idx))
	assert.Equal(t, 1, kinds[ProblemNoEligibleTeacher])
	assert.Equal(t, 1, kinds[ProblemNoRoomOfType])
}

func TestPreflightFlagsInactiveRoomType(t *testing.T) {
	ds := testDataset()
	// The auditorium exists but is inactive, so it must not satisfy demand.
	ds.Requirements["sec-a"] = append(ds.Requirements["sec-a"], Requirement{
		SubjectID: "assembly", PeriodsPerWeek: 1, RoomType: "AUDITORIUM",
	})
	ds.Eligible["sec-a"]["assembly"] = []string{"t-ben"}
	idx := NewIndex(ds)

	kinds := problemKinds(Preflight(idx))
	assert.Equal(t, 1, kinds[ProblemNoRoomOfType])
}

func TestPreflightFlagsEmptySlots(t *testing.T) {
	ds := testDataset()
	ds.Slots = nil
	idx := NewIndex(ds)

	kinds := problemKinds(Preflight(idx))
	assert.Equal(t, 1, kinds[ProblemNoTeachingSlots])
}

func TestCapacityShortfallsCleanDataset(t *testing.T) {
	idx := NewIndex(testDataset())
	assert.Empty(t, CapacityShortfalls(idx))
}

func TestPostGenerationCheckCatchesCorruptedWinner(t *testing.T) {
	idx := NewIndex(testDataset())
	gen := NewGenerator(idx, CSPConfig{})
	schedule, infeasible := gen.Solve()
	require.Nil(t, infeasible)
	require.Empty(t, PostGenerationCheck(idx, schedule))

	// Corrupt one assignment to an ineligible teacher.
	for cell, a := range schedule.cells {
		if a.SubjectID == "math" && cell.SectionID == "sec-b" {
			a.TeacherID = "t-ben"
			schedule.Set(cell, a)
			break
		}
	}
	violations := PostGenerationCheck(idx, schedule)
	assert.NotEmpty(t, violations)

	found := false
	for _, v := range violations {
		if v.Kind == HardTeacherNotEligible {
			found = true
		}
	}
	assert.True(t, found, "expected an eligibility violation, got %+v", violations)
}
