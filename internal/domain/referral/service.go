package referral

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new referral in pending state. Providers cannot refer a
// patient to themselves.
func (s *Service) Create(ctx context.Context, ref *Referral) error {
	if ref.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if ref.FromProviderID == uuid.Nil || ref.ToProviderID == uuid.Nil {
		return fmt.Errorf("from_provider_id and to_provider_id are required")
	}
	if ref.FromProviderID == ref.ToProviderID {
		return fmt.Errorf("cannot refer a patient to the referring provider")
	}
	if ref.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if ref.Priority == "" {
		ref.Priority = PriorityMedium
	}
	if !ref.Priority.Valid() {
		return fmt.Errorf("invalid priority: %s", ref.Priority)
	}
	ref.Status = StatusPending
	ref.Read = false
	return s.repo.Create(ctx, ref)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Referral, error) {
	return s.repo.GetByID(ctx, id)
}

// Transition moves a referral to a new status, enforcing the lifecycle:
// pending may be accepted, rejected, or cancelled; accepted may be completed
// or cancelled; terminal states admit no changes.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next Status) (*Referral, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("invalid status: %s", next)
	}
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ref.Status.CanTransition(next) {
		return nil, fmt.Errorf("cannot transition referral from %s to %s", ref.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	ref.Status = next
	return ref, nil
}

// MarkRead flags a referral as seen in the receiving provider's inbox.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Referral, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter: %s", params.Status)
	}
	return s.repo.Search(ctx, params)
}

// BookingAuthorized reports whether the patient may book with the provider on
// referral grounds: true when they hold an accepted referral to that provider.
func (s *Service) BookingAuthorized(ctx context.Context, patientID, providerID uuid.UUID) (bool, error) {
	return s.repo.HasAccepted(ctx, patientID, providerID)
}
