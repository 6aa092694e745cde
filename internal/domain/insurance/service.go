package insurance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	policies PolicyRepository
}

func NewService(policies PolicyRepository) *Service {
	return &Service{policies: policies}
}

// CreatePolicy registers a policy for a patient, replacing any active policy
// they already hold.
func (s *Service) CreatePolicy(ctx context.Context, p *Policy) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if existing, err := s.policies.GetActiveByPatient(ctx, p.PatientID); err != nil {
		return err
	} else if existing != nil {
		if err := s.policies.Deactivate(ctx, existing.ID); err != nil {
			return err
		}
	}
	p.Active = true
	return s.policies.Create(ctx, p)
}

func (s *Service) GetPolicy(ctx context.Context, id uuid.UUID) (*Policy, error) {
	return s.policies.GetByID(ctx, id)
}

func (s *Service) UpdatePolicy(ctx context.Context, p *Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.policies.Update(ctx, p)
}

func (s *Service) DeactivatePolicy(ctx context.Context, id uuid.UUID) error {
	return s.policies.Deactivate(ctx, id)
}

func (s *Service) ListPolicies(ctx context.Context, limit, offset int) ([]*Policy, int, error) {
	return s.policies.List(ctx, limit, offset)
}

// CoverageFor resolves a patient's effective coverage tier. Patients without
// an active policy resolve to CoverageNone.
func (s *Service) CoverageFor(ctx context.Context, patientID uuid.UUID) (CoverageType, error) {
	p, err := s.policies.GetActiveByPatient(ctx, patientID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return CoverageNone, nil
	}
	return p.Type, nil
}

// Quote computes the cost split a patient would see for a visit with the
// given provider specialty, using their current coverage.
func (s *Service) Quote(ctx context.Context, patientID uuid.UUID, baseCents int64, specialty string) (Breakdown, error) {
	coverage, err := s.CoverageFor(ctx, patientID)
	if err != nil {
		return Breakdown{}, err
	}
	return Calculate(baseCents, coverage, specialty)
}
