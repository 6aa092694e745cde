package identity

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var weekdayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ValidateTemplate checks a weekly availability template: known weekday keys,
// hour bounds within 0..24, and per-day ranges ordered without overlap.
func ValidateTemplate(tpl WeeklyTemplate) error {
	for day, ranges := range tpl {
		if !weekdayNames[day] {
			return fmt.Errorf("unknown weekday %q", day)
		}
		sorted := make([]HourRange, len(ranges))
		copy(sorted, ranges)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		prev := -1
		for _, hr := range sorted {
			if hr.Start < 0 || hr.End > 24 || hr.Start >= hr.End {
				return fmt.Errorf("%s: invalid hour range %d-%d", day, hr.Start, hr.End)
			}
			if hr.Start < prev {
				return fmt.Errorf("%s: overlapping hour ranges", day)
			}
			prev = hr.End
		}
	}
	return nil
}

type Service struct {
	providers ProviderRepository
	patients  PatientRepository
}

func NewService(providers ProviderRepository, patients PatientRepository) *Service {
	return &Service{providers: providers, patients: patients}
}

// -- Provider --

func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Specialty == "" {
		p.Specialty = SpecialtyGeneral
	}
	if !p.Specialty.Valid() {
		return fmt.Errorf("invalid specialty: %s", p.Specialty)
	}
	if err := ValidateTemplate(p.Template); err != nil {
		return fmt.Errorf("availability template: %w", err)
	}
	p.Active = true
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) UpdateProvider(ctx context.Context, p *Provider) error {
	if p.Specialty != "" && !p.Specialty.Valid() {
		return fmt.Errorf("invalid specialty: %s", p.Specialty)
	}
	return s.providers.Update(ctx, p)
}

// SetAvailabilityTemplate replaces a provider's weekly template wholesale and
// stamps the change time. Existing appointments are not revalidated; the new
// template governs future availability queries only.
func (s *Service) SetAvailabilityTemplate(ctx context.Context, id uuid.UUID, tpl WeeklyTemplate) error {
	if err := ValidateTemplate(tpl); err != nil {
		return fmt.Errorf("availability template: %w", err)
	}
	if _, err := s.providers.GetByID(ctx, id); err != nil {
		return fmt.Errorf("provider not found")
	}
	return s.providers.UpdateTemplate(ctx, id, tpl)
}

func (s *Service) ListProviders(ctx context.Context, specialty Specialty, limit, offset int) ([]*Provider, int, error) {
	if specialty != "" && !specialty.Valid() {
		return nil, 0, fmt.Errorf("invalid specialty: %s", specialty)
	}
	return s.providers.List(ctx, specialty, limit, offset)
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
