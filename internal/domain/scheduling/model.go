package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// SlotDuration is the fixed length of every appointment slot.
const SlotDuration = time.Hour

// Kind distinguishes how an appointment was booked.
type Kind string

const (
	KindRegular   Kind = "regular"
	KindRecurring Kind = "recurring"
	KindEmergency Kind = "emergency"
)

func (k Kind) Valid() bool {
	switch k {
	case KindRegular, KindRecurring, KindEmergency:
		return true
	}
	return false
}

// Pattern is the recurrence cadence of a recurring series.
type Pattern string

const (
	PatternNone      Pattern = "none"
	PatternDaily     Pattern = "daily"
	PatternWeekly    Pattern = "weekly"
	PatternBiweekly  Pattern = "biweekly"
	PatternMonthly   Pattern = "monthly"
	PatternQuarterly Pattern = "quarterly"
	PatternYearly    Pattern = "yearly"
)

func (p Pattern) Valid() bool {
	switch p {
	case PatternNone, PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly, PatternQuarterly, PatternYearly:
		return true
	}
	return false
}

// Status is the lifecycle state of an appointment. Cancelled appointments
// release their slot; every other status holds it.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusCheckedIn   Status = "checked_in"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCheckedIn, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// Active reports whether the appointment still occupies its slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

// Appointment maps to the appointments table. Cost fields are a snapshot of
// the coverage split computed at booking time, in integer cents; later policy
// changes do not rewrite them.
type Appointment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID        uuid.UUID  `db:"provider_id" json:"provider_id"`
	Start             time.Time  `db:"start_ts" json:"start"`
	End               time.Time  `db:"end_ts" json:"end"`
	Kind              Kind       `db:"kind" json:"kind"`
	Status            Status     `db:"status" json:"status"`
	Pattern           Pattern    `db:"pattern" json:"pattern"`
	SeriesID          *uuid.UUID `db:"series_id" json:"series_id,omitempty"`
	BaseCostCents     int64      `db:"base_cost_cents" json:"base_cost_cents"`
	CoveredCents      int64      `db:"covered_cents" json:"covered_cents"`
	PatientCostCents  int64      `db:"patient_cost_cents" json:"patient_cost_cents"`
	Coverage          string     `db:"coverage" json:"coverage"`
	InsuranceVerified bool       `db:"insurance_verified" json:"insurance_verified"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Slot is one declared hour in a provider's calendar. Booked slots are
// reported alongside free ones so callers can render used and free capacity.
type Slot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	IsBooked bool      `json:"is_booked"`
}

// HourBlock is a half-open block of whole hours within a day, end exclusive.
type HourBlock struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ProviderInfo is the slice of a provider the scheduler needs: identity,
// specialty gating, and the weekly hours template keyed by lowercase weekday
// name.
type ProviderInfo struct {
	ID          uuid.UUID
	Name        string
	Specialty   string
	Restricted  bool
	WeeklyHours map[string][]HourBlock
}

// CostSplit is the booking-time coverage quote for one visit.
type CostSplit struct {
	BaseCents    int64  `json:"base_cents"`
	CoveredCents int64  `json:"covered_cents"`
	PatientCents int64  `json:"patient_cents"`
	Coverage     string `json:"coverage"`
}
