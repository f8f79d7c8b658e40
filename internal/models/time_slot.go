package models

import "time"

// TimeSlotKind distinguishes teaching periods from breaks and assemblies.
type TimeSlotKind string

const (
	TimeSlotTeaching TimeSlotKind = "TEACHING"
	TimeSlotBreak    TimeSlotKind = "BREAK"
)

// TimeSlot is a fixed daily period referenced by ordinal during generation.
type TimeSlot struct {
	ID        string       `db:"id" json:"id"`
	Ordinal   int          `db:"ordinal" json:"ordinal"`
	StartTime string       `db:"start_time" json:"start_time"`
	EndTime   string       `db:"end_time" json:"end_time"`
	Kind      TimeSlotKind `db:"kind" json:"kind"`
	Active    bool         `db:"active" json:"active"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
