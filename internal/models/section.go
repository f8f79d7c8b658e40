package models

import "time"

// Section is one class-section that receives its own weekly timetable.
type Section struct {
	ID           string    `db:"id" json:"id"`
	TermID       string    `db:"term_id" json:"term_id"`
	ClassName    string    `db:"class_name" json:"class_name"`
	SectionName  string    `db:"section_name" json:"section_name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	HomeroomID   *string   `db:"homeroom_id" json:"homeroom_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is an academic-structure lookup consumed read-only by the core.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Teacher is a staff-provider lookup consumed read-only by the core.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
