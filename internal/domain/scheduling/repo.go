package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchParams filters appointment listings. Zero values mean "any".
type SearchParams struct {
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	Status     Status
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AppointmentRepository defines storage operations for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListActiveByProvider returns the provider's non-cancelled appointments
	// overlapping [from, to).
	ListActiveByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time, status Status) error
	Search(ctx context.Context, params SearchParams) ([]*Appointment, int, error)
}

// ProviderDirectory resolves the provider details the scheduler needs.
type ProviderDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*ProviderInfo, error)
}

// ReferralSource answers whether a patient may book with a restricted
// provider.
type ReferralSource interface {
	BookingAuthorized(ctx context.Context, patientID, providerID uuid.UUID) (bool, error)
}

// PolicySource quotes the coverage split for a visit at booking time.
type PolicySource interface {
	Quote(ctx context.Context, patientID uuid.UUID, baseCents int64, specialty string) (CostSplit, error)
}

// Contact is the recipient of a booking notification.
type Contact struct {
	Name  string
	Email string
}

// PatientDirectory resolves patient contact details for notifications.
type PatientDirectory interface {
	Contact(ctx context.Context, id uuid.UUID) (Contact, error)
}

// Notifier receives post-commit booking events. Implementations must not
// block bookings; delivery failures are the implementation's concern.
type Notifier interface {
	AppointmentBooked(ctx context.Context, a *Appointment, to Contact)
	AppointmentCancelled(ctx context.Context, a *Appointment, to Contact)
	AppointmentRescheduled(ctx context.Context, a *Appointment, to Contact)
	SeriesCreated(ctx context.Context, to Contact, pattern Pattern, booked, skipped int)
}
