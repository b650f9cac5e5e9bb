package models

import "time"

// ScheduleItemKind discriminates the two sources merged into a day view.
type ScheduleItemKind string

const (
	ScheduleItemOffering    ScheduleItemKind = "OFFERING"
	ScheduleItemAppointment ScheduleItemKind = "APPOINTMENT"
)

// ScheduleItem is one entry in a student's composed day view: either a
// recurring offering session at its fixed period, or a one-off appointment
// mapped onto a period by its start hour.
type ScheduleItem struct {
	Kind       ScheduleItemKind `json:"kind"`
	Period     Period           `json:"period"`
	Title      string           `json:"title"`
	ResourceID string           `json:"resource_id"`
	StartAt    *time.Time       `json:"start_at,omitempty"`
	EndAt      *time.Time       `json:"end_at,omitempty"`
}

// DaySchedule is the per-day, per-period view for a student. Colliding items
// share a period and are all returned; FreePeriods counts periods with zero
// items, so a collision makes it undercount relative to raw item count.
type DaySchedule struct {
	StudentID   string         `json:"student_id"`
	Date        time.Time      `json:"date"`
	DayOfWeek   int            `json:"day_of_week"`
	Items       []ScheduleItem `json:"items"`
	FreePeriods int            `json:"free_periods"`
}
