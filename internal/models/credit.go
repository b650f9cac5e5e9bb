package models

import "time"

// CreditTypeAttendance tags grants issued by the attendance recorder.
const CreditTypeAttendance = "attendance"

// CreditGrant is one append-only entry in a student's credit ledger.
// Grants are never mutated or revoked; totals are sums grouped by type.
type CreditGrant struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	OfferingID string    `db:"offering_id" json:"offering_id"`
	Type       string    `db:"type" json:"type"`
	Amount     float64   `db:"amount" json:"amount"`
	EarnedDate time.Time `db:"earned_date" json:"earned_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CreditTotal aggregates grant amounts for one credit type.
type CreditTotal struct {
	Type  string  `db:"type" json:"type"`
	Total float64 `db:"total" json:"total"`
}
