package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionOfferingCreate     = "OFFERING_CREATE"
	AuditActionOfferingUpdate     = "OFFERING_UPDATE"
	AuditActionOfferingClone      = "OFFERING_CLONE"
	AuditActionOfferingArchive    = "OFFERING_ARCHIVE"
	AuditActionEnroll             = "ENROLL"
	AuditActionWaitlistApprove    = "WAITLIST_APPROVE"
	AuditActionEnrollmentDrop     = "ENROLLMENT_DROP"
	AuditActionEnrollmentComplete = "ENROLLMENT_COMPLETE"
	AuditActionAttendanceSave     = "ATTENDANCE_SAVE"
	AuditActionAppointment        = "APPOINTMENT_CHANGE"
)

// AuditEvent is an immutable record of a mutating action. Events are
// appended by a write-only sink and never read back by core logic.
type AuditEvent struct {
	ID           string    `db:"id" json:"id"`
	ActorID      string    `db:"actor_id" json:"actor_id"`
	Action       string    `db:"action" json:"action"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	ResourceID   string    `db:"resource_id" json:"resource_id"`
	Details      []byte    `db:"details" json:"details,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
