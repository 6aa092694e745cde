package insurance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CoverageType is the tier of a patient's insurance policy. Patients with no
// policy on file are treated as CoverageNone.
type CoverageType string

const (
	CoverageNone     CoverageType = "none"
	CoverageLimited  CoverageType = "limited"
	CoverageStandard CoverageType = "standard"
	CoveragePremium  CoverageType = "premium"
)

func (t CoverageType) Valid() bool {
	switch t {
	case CoverageNone, CoverageLimited, CoverageStandard, CoveragePremium:
		return true
	}
	return false
}

// Percent returns the share of the base visit cost the plan pays, in whole
// percentage points.
func (t CoverageType) Percent() int64 {
	switch t {
	case CoverageLimited:
		return 20
	case CoverageStandard:
		return 50
	case CoveragePremium:
		return 80
	}
	return 0
}

// CoversSpecialty reports whether the tier applies to visits with the given
// provider specialty. Tiers that do not cover a specialty pay nothing for it;
// the appointment itself is still bookable at full patient cost.
func (t CoverageType) CoversSpecialty(specialty string) bool {
	switch t {
	case CoverageLimited:
		return specialty == "general"
	case CoverageStandard:
		return specialty == "general" || specialty == "therapist"
	case CoveragePremium:
		return true
	}
	return false
}

// Policy maps to the insurance_policies table. A patient holds at most one
// active policy. CardImageURLs point at scanned card uploads and are never
// required.
type Policy struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	PatientID     uuid.UUID    `db:"patient_id" json:"patient_id"`
	Type          CoverageType `db:"coverage_type" json:"coverage_type"`
	ProviderName  *string      `db:"provider_name" json:"provider_name,omitempty"`
	PolicyNumber  *string      `db:"policy_number" json:"policy_number,omitempty"`
	CardImageURLs []string     `db:"card_image_urls" json:"card_image_urls,omitempty"`
	Active        bool         `db:"active" json:"active"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Validate checks the policy's shape. A none policy records the absence of
// coverage and may not carry carrier details; every other tier requires a
// provider name and policy number.
func (p *Policy) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("invalid coverage type: %s", p.Type)
	}
	if p.Type == CoverageNone {
		if p.ProviderName != nil || p.PolicyNumber != nil {
			return fmt.Errorf("a none policy cannot carry a provider name or policy number")
		}
		return nil
	}
	if p.ProviderName == nil || *p.ProviderName == "" {
		return fmt.Errorf("provider_name is required for %s coverage", p.Type)
	}
	if p.PolicyNumber == nil || *p.PolicyNumber == "" {
		return fmt.Errorf("policy_number is required for %s coverage", p.Type)
	}
	return nil
}
