package models

import "time"

// ClassScheduleEntry is the live per-section view of one assignment.
type ClassScheduleEntry struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	Slot      int       `db:"slot" json:"slot"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID    *string   `db:"room_id" json:"room_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherScheduleEntry is the live per-teacher view. It must always be an
// exact projection of the class view: one row per class entry that names a
// teacher, with matching (day, slot, subject, section, room).
type TeacherScheduleEntry struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	Slot      int       `db:"slot" json:"slot"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	RoomID    *string   `db:"room_id" json:"room_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherProjection derives the teacher-view row for a class entry.
// Returns false when the entry has no teacher assigned.
func TeacherProjection(entry ClassScheduleEntry) (TeacherScheduleEntry, bool) {
	if entry.TeacherID == nil || *entry.TeacherID == "" {
		return TeacherScheduleEntry{}, false
	}
	return TeacherScheduleEntry{
		TermID:    entry.TermID,
		TeacherID: *entry.TeacherID,
		SectionID: entry.SectionID,
		DayOfWeek: entry.DayOfWeek,
		Slot:      entry.Slot,
		SubjectID: entry.SubjectID,
		RoomID:    entry.RoomID,
	}, true
}
