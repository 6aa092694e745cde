package referral

import (
	"context"

	"github.com/google/uuid"
)

// SearchParams filters referral listings. Zero values mean "any".
type SearchParams struct {
	PatientID    uuid.UUID
	ToProviderID uuid.UUID
	Status       Status
	UnreadOnly   bool
	Limit        int
	Offset       int
}

// Repository defines storage operations for referrals.
type Repository interface {
	Create(ctx context.Context, r *Referral) error
	GetByID(ctx context.Context, id uuid.UUID) (*Referral, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	MarkRead(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params SearchParams) ([]*Referral, int, error)
	// HasAccepted reports whether the patient holds an accepted referral to
	// the given provider.
	HasAccepted(ctx context.Context, patientID, providerID uuid.UUID) (bool, error)
}
