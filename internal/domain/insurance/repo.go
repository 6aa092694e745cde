package insurance

import (
	"context"

	"github.com/google/uuid"
)

// PolicyRepository defines storage operations for insurance policies.
type PolicyRepository interface {
	Create(ctx context.Context, p *Policy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Policy, error)
	GetActiveByPatient(ctx context.Context, patientID uuid.UUID) (*Policy, error)
	Update(ctx context.Context, p *Policy) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Policy, int, error)
}
