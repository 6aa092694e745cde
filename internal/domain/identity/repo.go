package identity

import (
	"context"

	"github.com/google/uuid"
)

// ProviderRepository persists providers and their availability templates.
type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	Update(ctx context.Context, p *Provider) error
	UpdateTemplate(ctx context.Context, id uuid.UUID, tpl WeeklyTemplate) error
	List(ctx context.Context, specialty Specialty, limit, offset int) ([]*Provider, int, error)
}

// PatientRepository persists patients.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
