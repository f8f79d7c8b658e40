package engine

import "fmt"

// ProblemKind classifies a pre-flight data-completeness failure.
type ProblemKind string

const (
	ProblemMissingRequirements ProblemKind = "MISSING_REQUIREMENTS"
	ProblemLoadExceedsWeek     ProblemKind = "LOAD_EXCEEDS_WEEK"
	ProblemNoEligibleTeacher   ProblemKind = "NO_ELIGIBLE_TEACHER"
	ProblemUnknownDay          ProblemKind = "UNKNOWN_DAY"
	ProblemNoTeachingSlots     ProblemKind = "NO_TEACHING_SLOTS"
	ProblemNoRoomOfType        ProblemKind = "NO_ROOM_OF_TYPE"
)

// Problem is one pre-flight finding, reported before search starts.
type Problem struct {
	Kind      ProblemKind `json:"kind"`
	SectionID string      `json:"section_id,omitempty"`
	SubjectID string      `json:"subject_id,omitempty"`
	Detail    string      `json:"detail"`
}

// Preflight verifies the dataset is complete and non-contradictory: every
// section has requirements, weekly load fits the teaching week, every
// required subject has an eligible teacher and, when a room type is named,
// at least one adequate room exists. Contradictions are surfaced here so
// they never have to be discovered mid-search.
func Preflight(idx *Index) []Problem {
	ds := idx.Dataset()
	var out []Problem

	if len(ds.Slots) == 0 {
		out = append(out, Problem{Kind: ProblemNoTeachingSlots, Detail: "no active teaching slots configured"})
	}

	cellsPerWeek := ds.CellsPerWeek()
	for _, info := range ds.Sections {
		reqs := ds.Requirements[info.ID]
		if len(reqs) == 0 {
			out = append(out, Problem{
				Kind:      ProblemMissingRequirements,
				SectionID: info.ID,
				Detail:    fmt.Sprintf("section %s has no subject period requirements", info.ID),
			})
			continue
		}

		total := 0
		for _, req := range reqs {
			total += req.PeriodsPerWeek

			if len(idx.TeachersFor(info.ID, req.SubjectID)) == 0 {
				out = append(out, Problem{
					Kind:      ProblemNoEligibleTeacher,
					SectionID: info.ID,
					SubjectID: req.SubjectID,
					Detail:    fmt.Sprintf("no eligible teacher for subject %s in section %s", req.SubjectID, info.ID),
				})
			}
			if req.RoomType != "" && len(idx.RoomsOfType(req.RoomType, info.StudentCount)) == 0 {
				out = append(out, Problem{
					Kind:      ProblemNoRoomOfType,
					SectionID: info.ID,
					SubjectID: req.SubjectID,
					Detail: fmt.Sprintf("no active %s room with capacity %d for section %s",
						req.RoomType, info.StudentCount, info.ID),
				})
			}
		}
		if total > cellsPerWeek {
			out = append(out, Problem{
				Kind:      ProblemLoadExceedsWeek,
				SectionID: info.ID,
				Detail: fmt.Sprintf("section %s requires %d periods but the week has %d teaching cells",
					info.ID, total, cellsPerWeek),
			})
		}
	}

	return out
}

// Shortfall reports a (section, subject) whose eligible teachers jointly
// have fewer free cells than the subject requires. A shortfall guarantees
// the search cannot succeed, so it is reported instead of under-assigning.
type Shortfall struct {
	SectionID string   `json:"section_id"`
	SubjectID string   `json:"subject_id"`
	Required  int      `json:"required"`
	Capacity  int      `json:"capacity"`
	Teachers  []string `json:"teachers"`
}

func (s Shortfall) String() string {
	return fmt.Sprintf("section %s subject %s requires %d periods but eligible teachers have only %d available cells",
		s.SectionID, s.SubjectID, s.Required, s.Capacity)
}

// CapacityShortfalls detects unsatisfiable demand before search.
func CapacityShortfalls(idx *Index) []Shortfall {
	ds := idx.Dataset()
	var out []Shortfall
	for _, info := range ds.Sections {
		for _, req := range ds.Requirements[info.ID] {
			teachers := idx.TeachersFor(info.ID, req.SubjectID)
			capacity := 0
			for _, t := range teachers {
				capacity += idx.AvailableCells(t)
			}
			if capacity < req.PeriodsPerWeek {
				out = append(out, Shortfall{
					SectionID: info.ID,
					SubjectID: req.SubjectID,
					Required:  req.PeriodsPerWeek,
					Capacity:  capacity,
					Teachers:  teachers,
				})
			}
		}
	}
	return out
}

// PostGenerationCheck re-runs the hard-constraint evaluator against the
// optimizer's winner. A violation here is fatal for the run even though the
// optimizer reported success; it guards against crossover and repair bugs.
func PostGenerationCheck(idx *Index, s *Schedule) []Violation {
	return hardViolations(idx, s)
}
