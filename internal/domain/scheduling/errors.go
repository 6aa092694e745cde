package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValidationError reports malformed or inconsistent booking input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// SlotConflictError reports that a provider already has an active appointment
// overlapping the requested slot.
type SlotConflictError struct {
	ProviderID uuid.UUID
	Start      time.Time
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("provider %s already booked at %s", e.ProviderID, e.Start.Format("2006-01-02 15:00"))
}

// ReferralRequiredError reports a booking attempt with a restricted-specialty
// provider without an accepted referral.
type ReferralRequiredError struct {
	ProviderID uuid.UUID
	Specialty  string
}

func (e *ReferralRequiredError) Error() string {
	return fmt.Sprintf("booking with %s provider %s requires an accepted referral", e.Specialty, e.ProviderID)
}

// UnavailableError reports a slot outside the provider's weekly hours.
type UnavailableError struct {
	ProviderID uuid.UUID
	Start      time.Time
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %s is not available at %s", e.ProviderID, e.Start.Format("2006-01-02 15:00"))
}

// RangeTooLargeError reports an availability query spanning more days than
// the calculator permits.
type RangeTooLargeError struct {
	Days int
	Max  int
}

func (e *RangeTooLargeError) Error() string {
	return fmt.Sprintf("availability range of %d days exceeds the %d-day maximum", e.Days, e.Max)
}
