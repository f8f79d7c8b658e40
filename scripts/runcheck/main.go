// Command runcheck verifies a stored generation run payload offline: it
// decodes the schedule, checks the cross-section consistency no database
// constraint enforces and prints per-teacher and per-section load tables.
// Point it at a JSON file or at a running API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"time"
)

type slot struct {
	SlotIndex int     `json:"slot_index"`
	SubjectID string  `json:"subject_id"`
	TeacherID *string `json:"teacher_id"`
	RoomID    *string `json:"room_id"`
}

type section struct {
	ClassName   string            `json:"class_name"`
	SectionName string            `json:"section_name"`
	Days        map[string][]slot `json:"days"`
}

type schedule struct {
	Sections map[string]section `json:"sections"`
}

type run struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Fitness  float64         `json:"fitness"`
	Schedule json.RawMessage `json:"schedule"`
}

type envelope struct {
	Data run `json:"data"`
}

func main() {
	var (
		file    string
		base    string
		runID   string
		timeout time.Duration
	)
	flag.StringVar(&file, "file", "", "path to a run JSON file (GET response or bare run object)")
	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL, used with -run")
	flag.StringVar(&runID, "run", "", "run ID to fetch from the API")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	raw, err := loadRun(file, base, runID, timeout)
	if err != nil {
		log.Fatalf("load run: %v", err)
	}

	var s schedule
	if err := json.Unmarshal(raw.Schedule, &s); err != nil {
		log.Fatalf("decode schedule: %v", err)
	}
	fmt.Printf("run %s status=%s fitness=%.2f sections=%d\n", raw.ID, raw.Status, raw.Fitness, len(s.Sections))

	conflicts := checkConsistency(s)
	printLoads(s)

	if len(conflicts) > 0 {
		fmt.Printf("\n%d conflicts:\n", len(conflicts))
		for _, c := range conflicts {
			fmt.Println("  " + c)
		}
		os.Exit(1)
	}
	fmt.Println("\nno conflicts")
}

func loadRun(file, base, runID string, timeout time.Duration) (*run, error) {
	var data []byte
	switch {
	case file != "":
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		data = raw
	case runID != "":
		client := &http.Client{Timeout: timeout}
		resp, err := client.Get(fmt.Sprintf("%s/api/v1/timetable/runs/%s", base, runID))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API returned %s", resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("pass -file or -run")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Data.ID != "" {
		return &env.Data, nil
	}
	var r run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// checkConsistency repeats the cross-section invariants over the flattened
// payload: no teacher or room in two places at the same (day, slot) and no
// section with two subjects in one cell.
func checkConsistency(s schedule) []string {
	var conflicts []string
	teacherBusy := map[string]string{} // teacher|day|slot -> section
	roomBusy := map[string]string{}
	sectionBusy := map[string]string{}

	for _, sectionID := range sectionIDs(s) {
		sec := s.Sections[sectionID]
		for day, slots := range sec.Days {
			for _, sl := range slots {
				cell := fmt.Sprintf("%s|%d", day, sl.SlotIndex)
				key := sectionID + "|" + cell
				if prev, ok := sectionBusy[key]; ok {
					conflicts = append(conflicts, fmt.Sprintf("section %s has %s and %s at %s", sectionID, prev, sl.SubjectID, cell))
				}
				sectionBusy[key] = sl.SubjectID

				if sl.TeacherID != nil {
					key := *sl.TeacherID + "|" + cell
					if prev, ok := teacherBusy[key]; ok && prev != sectionID {
						conflicts = append(conflicts, fmt.Sprintf("teacher %s in sections %s and %s at %s", *sl.TeacherID, prev, sectionID, cell))
					}
					teacherBusy[key] = sectionID
				}
				if sl.RoomID != nil {
					key := *sl.RoomID + "|" + cell
					if prev, ok := roomBusy[key]; ok && prev != sectionID {
						conflicts = append(conflicts, fmt.Sprintf("room %s booked by sections %s and %s at %s", *sl.RoomID, prev, sectionID, cell))
					}
					roomBusy[key] = sectionID
				}
			}
		}
	}
	return conflicts
}

func printLoads(s schedule) {
	teacherLoad := map[string]int{}
	fmt.Println("\nsection loads:")
	for _, sectionID := range sectionIDs(s) {
		sec := s.Sections[sectionID]
		total := 0
		for _, slots := range sec.Days {
			total += len(slots)
			for _, sl := range slots {
				if sl.TeacherID != nil {
					teacherLoad[*sl.TeacherID]++
				}
			}
		}
		fmt.Printf("  %-12s %s %s: %d periods/week\n", sectionID, sec.ClassName, sec.SectionName, total)
	}

	teachers := make([]string, 0, len(teacherLoad))
	for id := range teacherLoad {
		teachers = append(teachers, id)
	}
	sort.Strings(teachers)
	fmt.Println("teacher loads:")
	for _, id := range teachers {
		fmt.Printf("  %-12s %d periods/week\n", id, teacherLoad[id])
	}
}

func sectionIDs(s schedule) []string {
	ids := make([]string, 0, len(s.Sections))
	for id := range s.Sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
