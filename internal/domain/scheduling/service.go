package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/db"
)

// BookingRequest describes one booking attempt. Pattern other than none makes
// the booking recurring; Count and Until bound the series and are mutually
// exclusive. VerifyInsurance asks for a coverage quote at booking time;
// without it the full base cost falls to the patient.
type BookingRequest struct {
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	Start           time.Time
	Kind            Kind
	Pattern         Pattern
	Count           int
	Until           *time.Time
	VerifyInsurance bool
	Notes           *string
}

// SkippedSlot records a series occurrence that could not be booked.
type SkippedSlot struct {
	Start  time.Time `json:"start"`
	Reason string    `json:"reason"`
}

// BookingResult reports what a booking attempt committed. Recurring bookings
// may succeed partially: Appointments holds the committed occurrences and
// Skipped the dates that were dropped with the reason for each.
type BookingResult struct {
	Appointments []*Appointment `json:"appointments"`
	SeriesID     *uuid.UUID     `json:"series_id,omitempty"`
	Skipped      []SkippedSlot  `json:"skipped,omitempty"`
}

type Service struct {
	repo      AppointmentRepository
	providers ProviderDirectory
	patients  PatientDirectory
	referrals ReferralSource
	policies  PolicySource
	notifier  Notifier
	pool      *pgxpool.Pool
	baseCents int64
	logger    zerolog.Logger
}

func NewService(
	repo AppointmentRepository,
	providers ProviderDirectory,
	patients PatientDirectory,
	referrals ReferralSource,
	policies PolicySource,
	notifier Notifier,
	pool *pgxpool.Pool,
	baseCents int64,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		patients:  patients,
		referrals: referrals,
		policies:  policies,
		notifier:  notifier,
		pool:      pool,
		baseCents: baseCents,
		logger:    logger,
	}
}

// withProviderLock runs fn inside a transaction holding the provider's
// advisory lock, serializing bookings per provider. Without a pool (as in
// unit tests against in-memory repositories) fn runs directly.
func (s *Service) withProviderLock(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		if err := db.AcquireAdvisoryLock(ctx, "provider:"+providerID.String()); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// Book validates and commits a booking. Regular bookings must land inside the
// provider's weekly hours; emergency bookings bypass the hours template and
// the referral gate but still may not double-book a slot. A pattern other
// than none books a whole series under a fresh series id.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if req.PatientID == uuid.Nil || req.ProviderID == uuid.Nil {
		return nil, validationf("patient_id and provider_id are required")
	}
	if req.Kind == "" {
		req.Kind = KindRegular
	}
	if !req.Kind.Valid() {
		return nil, validationf("invalid kind %q", req.Kind)
	}
	if req.Pattern == "" {
		req.Pattern = PatternNone
	}
	if !req.Pattern.Valid() {
		return nil, validationf("invalid pattern %q", req.Pattern)
	}
	if req.Start.Minute() != 0 || req.Start.Second() != 0 || req.Start.Nanosecond() != 0 {
		return nil, validationf("appointments start on the hour")
	}
	if req.Kind == KindEmergency && req.Pattern != PatternNone {
		return nil, validationf("emergency bookings cannot recur")
	}

	provider, err := s.providers.Lookup(ctx, req.ProviderID)
	if err != nil {
		return nil, &NotFoundError{Entity: "provider", ID: req.ProviderID}
	}
	contact, err := s.patients.Contact(ctx, req.PatientID)
	if err != nil {
		return nil, &NotFoundError{Entity: "patient", ID: req.PatientID}
	}

	if req.Pattern != PatternNone {
		return s.bookSeries(ctx, req, provider, contact)
	}
	return s.bookSingle(ctx, req, provider, contact)
}

func (s *Service) bookSingle(ctx context.Context, req BookingRequest, provider *ProviderInfo, contact Contact) (*BookingResult, error) {
	var appt *Appointment
	err := s.withProviderLock(ctx, req.ProviderID, func(ctx context.Context) error {
		var err error
		appt, err = s.placeAppointment(ctx, req, provider, req.Start, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.AppointmentBooked(ctx, appt, contact)
	return &BookingResult{Appointments: []*Appointment{appt}}, nil
}

func (s *Service) bookSeries(ctx context.Context, req BookingRequest, provider *ProviderInfo, contact Contact) (*BookingResult, error) {
	exp, err := Expand(req.Pattern, req.Start, req.Count, req.Until)
	if err != nil {
		return nil, err
	}

	seriesID := uuid.New()
	result := &BookingResult{SeriesID: &seriesID}
	for _, t := range exp.Skipped {
		result.Skipped = append(result.Skipped, SkippedSlot{Start: t, Reason: "weekend"})
	}

	req.Kind = KindRecurring
	err = s.withProviderLock(ctx, req.ProviderID, func(ctx context.Context) error {
		// The seed occurrence must book; any failure there fails the whole
		// request. Expanded siblings skip soft failures instead.
		seed, err := s.placeAppointment(ctx, req, provider, req.Start, &seriesID)
		if err != nil {
			return err
		}
		result.Appointments = append(result.Appointments, seed)
		for _, start := range exp.Occurrences {
			appt, err := s.placeAppointment(ctx, req, provider, start, &seriesID)
			if err != nil {
				reason, soft := skipReason(err)
				if !soft {
					return err
				}
				result.Skipped = append(result.Skipped, SkippedSlot{Start: start, Reason: reason})
				continue
			}
			result.Appointments = append(result.Appointments, appt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.SeriesCreated(ctx, contact, req.Pattern, len(result.Appointments), len(result.Skipped))
	return result, nil
}

// skipReason classifies placement errors inside a series: slot conflicts and
// out-of-hours occurrences skip the date, anything else aborts the series.
func skipReason(err error) (string, bool) {
	switch err.(type) {
	case *SlotConflictError:
		return "slot conflict", true
	case *UnavailableError:
		return "outside provider hours", true
	}
	return "", false
}

// placeAppointment performs the per-slot checks and insert. Callers hold the
// provider lock.
func (s *Service) placeAppointment(ctx context.Context, req BookingRequest, provider *ProviderInfo, start time.Time, seriesID *uuid.UUID) (*Appointment, error) {
	end := start.Add(SlotDuration)

	if req.Kind != KindEmergency {
		if !WithinHours(provider, start) {
			return nil, &UnavailableError{ProviderID: provider.ID, Start: start}
		}
		if provider.Restricted {
			ok, err := s.referrals.BookingAuthorized(ctx, req.PatientID, provider.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &ReferralRequiredError{ProviderID: provider.ID, Specialty: provider.Specialty}
			}
		}
	}

	existing, err := s.repo.ListActiveByProvider(ctx, provider.ID, start, end)
	if err != nil {
		return nil, err
	}
	if conflict := FindConflict(existing, start, end); conflict != nil {
		return nil, &SlotConflictError{ProviderID: provider.ID, Start: start}
	}

	split := CostSplit{BaseCents: s.baseCents, PatientCents: s.baseCents, Coverage: "none"}
	if req.VerifyInsurance {
		quoted, err := s.policies.Quote(ctx, req.PatientID, s.baseCents, provider.Specialty)
		if err != nil {
			return nil, err
		}
		split = quoted
	}

	pattern := PatternNone
	if seriesID != nil {
		pattern = req.Pattern
	}
	appt := &Appointment{
		PatientID:         req.PatientID,
		ProviderID:        provider.ID,
		Start:             start,
		End:               end,
		Kind:              req.Kind,
		Status:            StatusScheduled,
		Pattern:           pattern,
		SeriesID:          seriesID,
		BaseCostCents:     split.BaseCents,
		CoveredCents:      split.CoveredCents,
		PatientCostCents:  split.PatientCents,
		Coverage:          split.Coverage,
		InsuranceVerified: req.VerifyInsurance,
		Notes:             req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "appointment", ID: id}
	}
	return a, nil
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Appointment, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, validationf("invalid status filter %q", params.Status)
	}
	return s.repo.Search(ctx, params)
}

func (s *Service) Series(ctx context.Context, seriesID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListBySeries(ctx, seriesID)
}

// Availability computes the provider's open slots for [from, to] inclusive.
func (s *Service) Availability(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Slot, error) {
	provider, err := s.providers.Lookup(ctx, providerID)
	if err != nil {
		return nil, &NotFoundError{Entity: "provider", ID: providerID}
	}
	booked, err := s.repo.ListActiveByProvider(ctx, providerID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return ComputeAvailability(provider, booked, from, to)
}

// Reschedule moves an appointment to a new start, running the same slot
// checks as booking. The moved appointment keeps its cost snapshot.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	if newStart.Minute() != 0 || newStart.Second() != 0 || newStart.Nanosecond() != 0 {
		return nil, validationf("appointments start on the hour")
	}
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch appt.Status {
	case StatusScheduled, StatusConfirmed, StatusRescheduled:
	default:
		return nil, validationf("cannot reschedule a %s appointment", appt.Status)
	}

	provider, err := s.providers.Lookup(ctx, appt.ProviderID)
	if err != nil {
		return nil, &NotFoundError{Entity: "provider", ID: appt.ProviderID}
	}

	newEnd := newStart.Add(SlotDuration)
	err = s.withProviderLock(ctx, appt.ProviderID, func(ctx context.Context) error {
		if appt.Kind != KindEmergency && !WithinHours(provider, newStart) {
			return &UnavailableError{ProviderID: provider.ID, Start: newStart}
		}
		existing, err := s.repo.ListActiveByProvider(ctx, appt.ProviderID, newStart, newEnd)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.ID == appt.ID {
				continue
			}
			if other.Status.Active() && Overlaps(other.Start, other.End, newStart, newEnd) {
				return &SlotConflictError{ProviderID: appt.ProviderID, Start: newStart}
			}
		}
		return s.repo.UpdateTimes(ctx, id, newStart, newEnd, StatusRescheduled)
	})
	if err != nil {
		return nil, err
	}

	appt.Start = newStart
	appt.End = newEnd
	appt.Status = StatusRescheduled
	if contact, err := s.patients.Contact(ctx, appt.PatientID); err == nil {
		s.notifier.AppointmentRescheduled(ctx, appt, contact)
	}
	return appt, nil
}

// Cancel soft-cancels an appointment, releasing its slot. Cancelled rows stay
// in history.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status == StatusCancelled {
		return validationf("appointment is already cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return err
	}
	appt.Status = StatusCancelled
	if contact, err := s.patients.Contact(ctx, appt.PatientID); err == nil {
		s.notifier.AppointmentCancelled(ctx, appt, contact)
	}
	return nil
}

// CancelSeries cancels every remaining active appointment in a series.
// Returns the number cancelled.
func (s *Service) CancelSeries(ctx context.Context, seriesID uuid.UUID) (int, error) {
	appts, err := s.repo.ListBySeries(ctx, seriesID)
	if err != nil {
		return 0, err
	}
	if len(appts) == 0 {
		return 0, &NotFoundError{Entity: "series", ID: seriesID}
	}
	cancelled := 0
	for _, a := range appts {
		if !a.Status.Active() || a.Status == StatusCompleted {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, a.ID, StatusCancelled); err != nil {
			return cancelled, err
		}
		cancelled++
	}
	s.logger.Info().Str("series_id", seriesID.String()).Int("cancelled", cancelled).Msg("series cancelled")
	return cancelled, nil
}

// statusFlow lists the forward transitions of the visit lifecycle.
var statusFlow = map[Status][]Status{
	StatusScheduled:   {StatusConfirmed, StatusCheckedIn},
	StatusRescheduled: {StatusConfirmed, StatusCheckedIn},
	StatusConfirmed:   {StatusCheckedIn},
	StatusCheckedIn:   {StatusCompleted},
}

// SetStatus advances an appointment through the visit lifecycle. Cancellation
// goes through Cancel, not here.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	if !next.Valid() || next == StatusCancelled {
		return nil, validationf("invalid target status %q", next)
	}
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, n := range statusFlow[appt.Status] {
		if n == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, validationf("cannot move appointment from %s to %s", appt.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	appt.Status = next
	return appt, nil
}
