package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

func TestAnalyzeSummarisesUtilization(t *testing.T) {
	idx := NewIndex(testDataset())
	gen := NewGenerator(idx, CSPConfig{})
	schedule, infeasible := gen.Solve()
	require.Nil(t, infeasible)

	report := Analyze(idx, schedule, 3.5)
	assert.Equal(t, 3.5, report.Fitness)
	assert.NotEmpty(t, report.Summary)

	weekly := make(map[string]int)
	for _, tu := range report.TeacherUtilization {
		weekly[tu.TeacherID] = tu.Weekly
	}
	// t-cara covers every english period of both sections.
	assert.Equal(t, 7, weekly["t-cara"])

	// Science always books a lab, so the lab bookings sum to its periods.
	labs := 0
	for _, ru := range report.RoomUtilization {
		labs += ru.Weekly
	}
	assert.Equal(t, 3, labs)
}

func TestAnalyzeFlagsClusteredSubjects(t *testing.T) {
	idx := NewIndex(testDataset())

	s := NewSchedule()
	for slot := 1; slot <= 3; slot++ {
		s.Set(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: slot}, Assignment{SubjectID: "math", TeacherID: "t-ana"})
	}

	report := Analyze(idx, s, 0)
	require.NotEmpty(t, report.PotentialIssues)
	assert.Contains(t, report.PotentialIssues[0], "math")

	require.Len(t, report.SubjectDistribution, 1)
	assert.Equal(t, 3, report.SubjectDistribution[0].ByDay[models.DayMonday])
}

func TestAnalyzeFlagsUnevenTeacherLoad(t *testing.T) {
	idx := NewIndex(testDataset())

	s := NewSchedule()
	// Four periods on one day and none on the other two is variance 32/9.
	for slot := 1; slot <= 4; slot++ {
		s.Set(Cell{SectionID: "sec-a", Day: models.DayMonday, Slot: slot}, Assignment{SubjectID: "math", TeacherID: "t-ana"})
	}

	report := Analyze(idx, s, 0)
	require.Len(t, report.TeacherUtilization, 1)
	assert.Greater(t, report.TeacherUtilization[0].LoadVariance, varianceIssueThreshold)

	found := false
	for _, issue := range report.PotentialIssues {
		if strings.Contains(issue, "t-ana") {
			found = true
		}
	}
	assert.True(t, found, "expected a load issue naming t-ana, got %v", report.PotentialIssues)
}

func TestAnalyzeEmptySchedule(t *testing.T) {
	idx := NewIndex(testDataset())
	report := Analyze(idx, NewSchedule(), 0)
	assert.Empty(t, report.TeacherUtilization)
	assert.Empty(t, report.RoomUtilization)
	assert.Empty(t, report.PotentialIssues)
	assert.NotEmpty(t, report.Summary)
}
