package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// Credit returns the credit amount awarded for the status. The table is
// fixed: present 1.0, late 0.8, excused 0.5, absent 0.0.
func (s AttendanceStatus) Credit() float64 {
	switch s {
	case AttendanceStatusPresent:
		return 1.0
	case AttendanceStatusLate:
		return 0.8
	case AttendanceStatusExcused:
		return 0.5
	default:
		return 0.0
	}
}

// AttendanceRecord stores one student's attendance for an offering on a
// calendar day. Uniqueness is enforced by a composite key on
// (offering_id, student_id, date); re-saving the same day upserts.
type AttendanceRecord struct {
	ID            string           `db:"id" json:"id"`
	OfferingID    string           `db:"offering_id" json:"offering_id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	Date          time.Time        `db:"date" json:"date"`
	Status        AttendanceStatus `db:"status" json:"status"`
	Notes         *string          `db:"notes" json:"notes,omitempty"`
	CreditAwarded float64          `db:"credit_awarded" json:"credit_awarded"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecordDetail extends the record with student metadata.
type AttendanceRecordDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
}

// AttendanceFilter defines query filters for listing attendance.
type AttendanceFilter struct {
	OfferingID string
	StudentID  string
	Status     *AttendanceStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// AttendanceStats summarises per-status counts over a date range.
type AttendanceStats struct {
	Present int     `db:"present" json:"present"`
	Absent  int     `db:"absent" json:"absent"`
	Late    int     `db:"late" json:"late"`
	Excused int     `db:"excused" json:"excused"`
	Total   int     `db:"total" json:"total"`
	Rate    float64 `json:"rate"`
}
