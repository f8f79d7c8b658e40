package engine

import (
	"fmt"
	"sort"
)

// TeacherUtilization summarises one teacher's assigned load.
type TeacherUtilization struct {
	TeacherID    string         `json:"teacher_id"`
	Daily        map[string]int `json:"daily"`
	Weekly       int            `json:"weekly"`
	LoadVariance float64        `json:"load_variance"`
}

// RoomUtilization summarises bookings per room.
type RoomUtilization struct {
	RoomID string         `json:"room_id"`
	Daily  map[string]int `json:"daily"`
	Weekly int            `json:"weekly"`
}

// SubjectDistribution shows how a section's subject spreads over the week.
type SubjectDistribution struct {
	SectionID string         `json:"section_id"`
	SubjectID string         `json:"subject_id"`
	ByDay     map[string]int `json:"by_day"`
}

// Report is the read-only analysis of a generated schedule. Producing it
// never mutates the run or the live schedule.
type Report struct {
	Fitness             float64               `json:"fitness_score"`
	TeacherUtilization  []TeacherUtilization  `json:"teacher_utilization"`
	RoomUtilization     []RoomUtilization     `json:"room_utilization"`
	SubjectDistribution []SubjectDistribution `json:"subject_distribution"`
	PotentialIssues     []string              `json:"potential_issues"`
	Summary             string                `json:"summary"`
}

// Issue thresholds. Loads above these are worth an operator's look but are
// not hard failures.
const (
	varianceIssueThreshold = 2.0
	clusterIssueThreshold  = subjectSpreadThreshold
)

// Analyze computes utilization and distribution reports plus a list of
// human-readable potential issues for the given schedule.
func Analyze(idx *Index, s *Schedule, fitness float64) Report {
	ds := idx.Dataset()
	report := Report{Fitness: fitness}

	teacherDaily := make(map[string]map[string]int)
	roomDaily := make(map[string]map[string]int)
	type distKey struct{ section, subject string }
	dist := make(map[distKey]map[string]int)

	for cell, a := range s.cells {
		if a.TeacherID != "" {
			if teacherDaily[a.TeacherID] == nil {
				teacherDaily[a.TeacherID] = make(map[string]int)
			}
			teacherDaily[a.TeacherID][cell.Day]++
		}
		if a.RoomID != "" {
			if roomDaily[a.RoomID] == nil {
				roomDaily[a.RoomID] = make(map[string]int)
			}
			roomDaily[a.RoomID][cell.Day]++
		}
		k := distKey{section: cell.SectionID, subject: a.SubjectID}
		if dist[k] == nil {
			dist[k] = make(map[string]int)
		}
		dist[k][cell.Day]++
	}

	var issues []string

	teacherIDs := sortedKeys(teacherDaily)
	for _, teacherID := range teacherIDs {
		daily := teacherDaily[teacherID]
		weekly := 0
		for _, c := range daily {
			weekly += c
		}
		mean := float64(weekly) / float64(len(ds.Days))
		var variance float64
		for _, day := range ds.Days {
			diff := float64(daily[day]) - mean
			variance += diff * diff
		}
		variance /= float64(len(ds.Days))

		report.TeacherUtilization = append(report.TeacherUtilization, TeacherUtilization{
			TeacherID:    teacherID,
			Daily:        daily,
			Weekly:       weekly,
			LoadVariance: variance,
		})
		if variance > varianceIssueThreshold {
			issues = append(issues, fmt.Sprintf(
				"teacher %s has uneven daily load (variance %.1f)", teacherID, variance))
		}
	}

	for _, roomID := range sortedKeys(roomDaily) {
		daily := roomDaily[roomID]
		weekly := 0
		for _, c := range daily {
			weekly += c
		}
		report.RoomUtilization = append(report.RoomUtilization, RoomUtilization{
			RoomID: roomID,
			Daily:  daily,
			Weekly: weekly,
		})
	}

	distKeys := make([]distKey, 0, len(dist))
	for k := range dist {
		distKeys = append(distKeys, k)
	}
	sort.Slice(distKeys, func(i, j int) bool {
		if distKeys[i].section != distKeys[j].section {
			return distKeys[i].section < distKeys[j].section
		}
		return distKeys[i].subject < distKeys[j].subject
	})
	for _, k := range distKeys {
		report.SubjectDistribution = append(report.SubjectDistribution, SubjectDistribution{
			SectionID: k.section,
			SubjectID: k.subject,
			ByDay:     dist[k],
		})
		for day, count := range dist[k] {
			if count > clusterIssueThreshold {
				issues = append(issues, fmt.Sprintf(
					"section %s has %d periods of %s on %s", k.section, count, k.subject, day))
			}
		}
	}

	sort.Strings(issues)
	report.PotentialIssues = issues
	report.Summary = fmt.Sprintf("%d assignments across %d sections, %d teachers, fitness %.2f, %d potential issues",
		s.Len(), len(ds.Sections), len(teacherDaily), fitness, len(issues))
	return report
}

func sortedKeys(m map[string]map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
