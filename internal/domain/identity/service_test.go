package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockProviderRepo struct {
	providers map[uuid.UUID]*Provider
}

func newMockProviderRepo() *mockProviderRepo {
	return &mockProviderRepo{providers: make(map[uuid.UUID]*Provider)}
}

func (m *mockProviderRepo) Create(ctx context.Context, p *Provider) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.providers[p.ID] = p
	return nil
}

func (m *mockProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider not found")
	}
	return p, nil
}

func (m *mockProviderRepo) Update(ctx context.Context, p *Provider) error {
	if _, ok := m.providers[p.ID]; !ok {
		return fmt.Errorf("provider not found")
	}
	m.providers[p.ID] = p
	return nil
}

func (m *mockProviderRepo) UpdateTemplate(ctx context.Context, id uuid.UUID, tpl WeeklyTemplate) error {
	p, ok := m.providers[id]
	if !ok {
		return fmt.Errorf("provider not found")
	}
	p.Template = tpl
	return nil
}

func (m *mockProviderRepo) List(ctx context.Context, specialty Specialty, limit, offset int) ([]*Provider, int, error) {
	var out []*Provider
	for _, p := range m.providers {
		if specialty != "" && p.Specialty != specialty {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient not found")
	}
	return p, nil
}

func (m *mockPatientRepo) Update(ctx context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return fmt.Errorf("patient not found")
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockProviderRepo, *mockPatientRepo) {
	providers := newMockProviderRepo()
	patients := newMockPatientRepo()
	return NewService(providers, patients), providers, patients
}

func TestCreateProviderDefaults(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Provider{Name: "Dr. Chen"}
	if err := svc.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if p.Specialty != SpecialtyGeneral {
		t.Errorf("expected default specialty %q, got %q", SpecialtyGeneral, p.Specialty)
	}
	if !p.Active {
		t.Error("expected new provider to be active")
	}
	if p.ID == uuid.Nil {
		t.Error("expected provider ID to be assigned")
	}
}

func TestCreateProviderValidation(t *testing.T) {
	svc, _, _ := newTestService()

	if err := svc.CreateProvider(context.Background(), &Provider{}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateProvider(context.Background(), &Provider{Name: "X", Specialty: "astrologer"}); err == nil {
		t.Error("expected error for unknown specialty")
	}
	bad := &Provider{Name: "X", Template: WeeklyTemplate{"monday": {{Start: 12, End: 9}}}}
	if err := svc.CreateProvider(context.Background(), bad); err == nil {
		t.Error("expected error for invalid template")
	}
}

func TestSetAvailabilityTemplate(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Provider{Name: "Dr. Chen", Specialty: SpecialtyTherapist}
	if err := svc.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}

	tpl := WeeklyTemplate{
		"monday": {{Start: 9, End: 12}},
		"friday": {{Start: 13, End: 17}},
	}
	if err := svc.SetAvailabilityTemplate(context.Background(), p.ID, tpl); err != nil {
		t.Fatalf("SetAvailabilityTemplate() error = %v", err)
	}

	got, err := svc.GetProvider(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	if len(got.Template["monday"]) != 1 || got.Template["monday"][0].End != 12 {
		t.Errorf("template not replaced: %+v", got.Template)
	}
}

func TestSetAvailabilityTemplateRejectsInvalid(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Provider{Name: "Dr. Chen"}
	if err := svc.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}

	err := svc.SetAvailabilityTemplate(context.Background(), p.ID, WeeklyTemplate{"monday": {{Start: 9, End: 9}}})
	if err == nil {
		t.Error("expected error for empty range")
	}

	err = svc.SetAvailabilityTemplate(context.Background(), uuid.New(), WeeklyTemplate{})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestListProvidersBySpecialty(t *testing.T) {
	svc, _, _ := newTestService()

	for _, s := range []Specialty{SpecialtyGeneral, SpecialtySurgeon, SpecialtyGeneral} {
		p := &Provider{Name: "Dr. " + string(s), Specialty: s}
		if err := svc.CreateProvider(context.Background(), p); err != nil {
			t.Fatalf("CreateProvider() error = %v", err)
		}
	}

	items, total, err := svc.ListProviders(context.Background(), SpecialtyGeneral, 20, 0)
	if err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 general providers, got %d (total %d)", len(items), total)
	}

	if _, _, err := svc.ListProviders(context.Background(), "astrologer", 20, 0); err == nil {
		t.Error("expected error for unknown specialty filter")
	}
}

func TestPatientCRUD(t *testing.T) {
	svc, _, _ := newTestService()

	email := "ana@example.com"
	p := &Patient{Name: "Ana Flores", Email: &email}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient() error = %v", err)
	}

	got, err := svc.GetPatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPatient() error = %v", err)
	}
	if got.Name != "Ana Flores" {
		t.Errorf("unexpected patient name %q", got.Name)
	}

	phone := "555-0100"
	got.Phone = &phone
	if err := svc.UpdatePatient(context.Background(), got); err != nil {
		t.Fatalf("UpdatePatient() error = %v", err)
	}

	if err := svc.CreatePatient(context.Background(), &Patient{}); err == nil {
		t.Error("expected error for missing patient name")
	}
}
