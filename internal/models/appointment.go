package models

import "time"

// AppointmentStatus represents the lifecycle of a one-off appointment.
type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "REQUESTED"
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusRequested, AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving to the target status is legal.
// Cancellation is reachable from any live state and is terminal.
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	switch s {
	case AppointmentStatusRequested:
		return to == AppointmentStatusScheduled || to == AppointmentStatusCancelled
	case AppointmentStatusScheduled:
		return to == AppointmentStatusConfirmed || to == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return to == AppointmentStatusCancelled
	default:
		return false
	}
}

// Appointment is a one-off, dated meeting between a student and a
// specialist. It is not tied to the weekly period grid; the schedule
// composer maps it onto a period by its start hour at read time.
type Appointment struct {
	ID           string            `db:"id" json:"id"`
	StudentID    string            `db:"student_id" json:"student_id"`
	SpecialistID string            `db:"specialist_id" json:"specialist_id"`
	Title        string            `db:"title" json:"title"`
	StartAt      time.Time         `db:"start_at" json:"start_at"`
	EndAt        time.Time         `db:"end_at" json:"end_at"`
	Status       AppointmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentFilter scopes listing queries.
type AppointmentFilter struct {
	StudentID    string
	SpecialistID string
	Status       AppointmentStatus
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
