package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled   EnrollmentStatus = "ENROLLED"
	EnrollmentStatusWaitlisted EnrollmentStatus = "WAITLISTED"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped    EnrollmentStatus = "DROPPED"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusEnrolled, EnrollmentStatusWaitlisted, EnrollmentStatusCompleted, EnrollmentStatusDropped:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving to the target status is a legal step
// in the enrollment state machine. No transition returns to an unenrolled
// state; drops and completions are terminal.
func (s EnrollmentStatus) CanTransition(to EnrollmentStatus) bool {
	switch s {
	case EnrollmentStatusWaitlisted:
		return to == EnrollmentStatusEnrolled || to == EnrollmentStatusDropped
	case EnrollmentStatusEnrolled:
		return to == EnrollmentStatusCompleted || to == EnrollmentStatusDropped
	default:
		return false
	}
}

// Enrollment captures a student's registration to an offering. At most one
// enrollment exists per (student, offering) pair.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	OfferingID       string           `db:"offering_id" json:"offering_id"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	WaitlistPosition *int             `db:"waitlist_position" json:"waitlist_position,omitempty"`
	EnrolledAt       time.Time        `db:"enrolled_at" json:"enrolled_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student profile fields for
// roster and waitlist projections.
type EnrollmentDetail struct {
	Enrollment
	StudentName       string `db:"student_name" json:"student_name"`
	StudentEmail      string `db:"student_email" json:"student_email"`
	StudentExternalID string `db:"student_external_id" json:"student_external_id"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	OfferingID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
