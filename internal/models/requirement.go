package models

import "time"

// SubjectPeriodRequirement declares how many weekly periods a subject needs
// for a section, and how many may run back-to-back.
type SubjectPeriodRequirement struct {
	ID             string    `db:"id" json:"id"`
	SectionID      string    `db:"section_id" json:"section_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	PeriodsPerWeek int       `db:"periods_per_week" json:"periods_per_week"`
	MaxConsecutive int       `db:"max_consecutive" json:"max_consecutive"`
	RoomType       string    `db:"room_type" json:"room_type"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherUnavailability marks a (day, slot) a teacher cannot teach.
type TeacherUnavailability struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	Slot      int       `db:"slot" json:"slot"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherEligibility records that a teacher may teach a subject for a section.
// The priority column orders teachers when several are eligible.
type TeacherEligibility struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	Priority  int       `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Room is a physical or virtual room available for special-purpose periods.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
