package service

import (
	"fmt"
	"sort"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/engine"
)

// toBoundary serializes a winning candidate into the per-section, per-day
// shape stored on the run and returned by the API. Search itself never uses
// this form.
func toBoundary(idx *engine.Index, s *engine.Schedule) dto.GeneratedSchedule {
	ds := idx.Dataset()
	out := dto.GeneratedSchedule{Sections: make(map[string]dto.GeneratedSection, len(ds.Sections))}
	slotIndex := make(map[int]int, len(ds.Slots))
	for i, ordinal := range ds.Slots {
		slotIndex[ordinal] = i
	}

	for _, info := range ds.Sections {
		section := dto.GeneratedSection{
			ClassName:   info.ClassName,
			SectionName: info.SectionName,
			Days:        make(map[string][]dto.GeneratedSlot, len(ds.Days)),
		}
		for _, day := range ds.Days {
			assignments := s.SectionDayAssignments(info.ID, day)
			slots := make([]dto.GeneratedSlot, 0, len(assignments))
			for ordinal, a := range assignments {
				slot := dto.GeneratedSlot{SlotIndex: slotIndex[ordinal], SubjectID: a.SubjectID}
				if a.TeacherID != "" {
					teacher := a.TeacherID
					slot.TeacherID = &teacher
				}
				if a.RoomID != "" {
					room := a.RoomID
					slot.RoomID = &room
				}
				slots = append(slots, slot)
			}
			sort.Slice(slots, func(i, j int) bool { return slots[i].SlotIndex < slots[j].SlotIndex })
			section.Days[day] = slots
		}
		out.Sections[info.ID] = section
	}
	return out
}

// fromBoundary rebuilds the strongly-typed schedule from its stored form.
func fromBoundary(idx *engine.Index, payload dto.GeneratedSchedule) (*engine.Schedule, error) {
	ds := idx.Dataset()
	s := engine.NewSchedule()
	for sectionID, section := range payload.Sections {
		for day, slots := range section.Days {
			for _, slot := range slots {
				if slot.SlotIndex < 0 || slot.SlotIndex >= len(ds.Slots) {
					return nil, fmt.Errorf("section %s %s: slot index %d out of range", sectionID, day, slot.SlotIndex)
				}
				a := engine.Assignment{SubjectID: slot.SubjectID}
				if slot.TeacherID != nil {
					a.TeacherID = *slot.TeacherID
				}
				if slot.RoomID != nil {
					a.RoomID = *slot.RoomID
				}
				s.Set(engine.Cell{SectionID: sectionID, Day: day, Slot: ds.Slots[slot.SlotIndex]}, a)
			}
		}
	}
	return s, nil
}
