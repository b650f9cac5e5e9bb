package models

import (
	"time"

	"github.com/lib/pq"
)

// OfferingStatus represents the lifecycle of a class or seminar offering.
type OfferingStatus string

// Possible offering statuses.
const (
	OfferingStatusDraft     OfferingStatus = "DRAFT"
	OfferingStatusPublished OfferingStatus = "PUBLISHED"
	OfferingStatusArchived  OfferingStatus = "ARCHIVED"
)

// Valid returns true when the status is a supported value.
func (s OfferingStatus) Valid() bool {
	switch s {
	case OfferingStatusDraft, OfferingStatusPublished, OfferingStatusArchived:
		return true
	default:
		return false
	}
}

// Offering is a scheduled class or seminar with a fixed weekly period and
// capacity. CurrentEnrollment and WaitlistCount are denormalized counters
// maintained by the enrollment ledger.
type Offering struct {
	ID                string         `db:"id" json:"id"`
	Title             string         `db:"title" json:"title"`
	Description       string         `db:"description" json:"description"`
	OwnerID           string         `db:"owner_id" json:"owner_id"`
	Period            Period         `db:"period" json:"period"`
	DaysOfWeek        pq.Int64Array  `db:"days_of_week" json:"days_of_week"`
	Capacity          int            `db:"capacity" json:"capacity"`
	CurrentEnrollment int            `db:"current_enrollment" json:"current_enrollment"`
	WaitlistCount     int            `db:"waitlist_count" json:"waitlist_count"`
	Status            OfferingStatus `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// MeetsOn reports whether the offering has a session on the given weekday.
func (o *Offering) MeetsOn(day time.Weekday) bool {
	for _, d := range o.DaysOfWeek {
		if int(d) == int(day) {
			return true
		}
	}
	return false
}

// OfferingFilter provides filters for listing offerings.
type OfferingFilter struct {
	OwnerID   string
	Status    OfferingStatus
	Period    *Period
	DayOfWeek *int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
