package engine

import (
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

// testDataset builds a small three-day scope: two sections, three teachers,
// one lab-bound subject. Total demand leaves slack in both sections.
func testDataset() *Dataset {
	return &Dataset{
		TermID: "term-1",
		Days:   []string{models.DayMonday, models.DayTuesday, models.DayWednesday},
		Slots:  []int{1, 2, 3, 4},
		Sections: []SectionInfo{
			{ID: "sec-a", ClassName: "10", SectionName: "A", StudentCount: 30},
			{ID: "sec-b", ClassName: "10", SectionName: "B", StudentCount: 28},
		},
		Requirements: map[string][]Requirement{
			"sec-a": {
				{SubjectID: "math", PeriodsPerWeek: 4, MaxConsecutive: 2},
				{SubjectID: "sci", PeriodsPerWeek: 3, MaxConsecutive: 2, RoomType: "LAB"},
				{SubjectID: "eng", PeriodsPerWeek: 3, MaxConsecutive: 2},
			},
			"sec-b": {
				{SubjectID: "math", PeriodsPerWeek: 4, MaxConsecutive: 2},
				{SubjectID: "eng", PeriodsPerWeek: 4, MaxConsecutive: 2},
			},
		},
		Eligible: map[string]map[string][]string{
			"sec-a": {
				"math": {"t-ana", "t-ben"},
				"sci":  {"t-ben"},
				"eng":  {"t-cara"},
			},
			"sec-b": {
				"math": {"t-ana"},
				"eng":  {"t-cara"},
			},
		},
		Unavailable: map[string]map[string]map[int]bool{
			"t-cara": {
				models.DayMonday: {1: true, 2: true},
			},
		},
		Rooms: []models.Room{
			{ID: "lab-1", Name: "Lab 1", Type: "LAB", Capacity: 32, Active: true},
			{ID: "lab-2", Name: "Lab 2", Type: "LAB", Capacity: 40, Active: true},
			{ID: "aud-1", Name: "Auditorium", Type: "AUDITORIUM", Capacity: 200, Active: false},
		},
	}
}

func subjectCounts(s *Schedule, sectionID string) map[string]int {
	counts := make(map[string]int)
	for cell, a := range s.cells {
		if cell.SectionID == sectionID {
			counts[a.SubjectID]++
		}
	}
	return counts
}
