package identity

import (
	"time"

	"github.com/google/uuid"
)

// Specialty classifies providers. Restricted specialties require an accepted
// referral before a patient can book.
type Specialty string

const (
	SpecialtyGeneral   Specialty = "general"
	SpecialtySurgeon   Specialty = "surgeon"
	SpecialtyTherapist Specialty = "therapist"
	SpecialtyNurse     Specialty = "nurse"
)

var validSpecialties = map[Specialty]bool{
	SpecialtyGeneral: true, SpecialtySurgeon: true,
	SpecialtyTherapist: true, SpecialtyNurse: true,
}

// Valid reports whether s is a known specialty.
func (s Specialty) Valid() bool { return validSpecialties[s] }

// Restricted reports whether booking this specialty requires an accepted
// referral.
func (s Specialty) Restricted() bool {
	return s == SpecialtySurgeon || s == SpecialtyTherapist
}

// HourRange is a contiguous block of whole clock hours in a provider's day.
// End is exclusive, so {9, 12} covers the 09:00, 10:00, and 11:00 slots.
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WeeklyTemplate maps lowercase weekday names ("monday" .. "sunday") to the
// hour ranges the provider works that day. Days absent from the map are
// non-working days.
type WeeklyTemplate map[string][]HourRange

// Provider maps to the provider table.
type Provider struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Email             *string        `db:"email" json:"email,omitempty"`
	Specialty         Specialty      `db:"specialty" json:"specialty"`
	Template          WeeklyTemplate `db:"availability_template" json:"availability_template"`
	TemplateUpdatedAt *time.Time     `db:"template_updated_at" json:"template_updated_at,omitempty"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
