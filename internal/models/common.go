package models

// Pagination describes list slicing metadata in responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Day identifiers used across the live schedule and the generator.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
	DaySunday    = "SUNDAY"
)

var dayOrder = map[string]int{
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
	DaySunday:    7,
}

// DayOrdinal returns the 1-based weekday position, or 0 for unknown names.
func DayOrdinal(day string) int {
	return dayOrder[day]
}

// IsKnownDay reports whether the identifier names a weekday.
func IsKnownDay(day string) bool {
	return dayOrder[day] != 0
}
