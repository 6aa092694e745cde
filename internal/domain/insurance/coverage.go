package insurance

import "fmt"

// Breakdown splits a visit cost between the plan and the patient. Amounts are
// integer cents and always satisfy CoveredCents + PatientCents == BaseCents.
type Breakdown struct {
	BaseCents    int64        `json:"base_cents"`
	CoveredCents int64        `json:"covered_cents"`
	PatientCents int64        `json:"patient_cents"`
	Coverage     CoverageType `json:"coverage"`
	Percent      int64        `json:"percent"`
}

// Calculate computes the cost split for one visit. The covered amount is
// rounded half-to-even to whole cents and the patient pays the remainder, so
// the two parts reconstruct the base exactly. Tiers that do not cover the
// provider's specialty contribute nothing.
func Calculate(baseCents int64, coverage CoverageType, specialty string) (Breakdown, error) {
	if baseCents < 0 {
		return Breakdown{}, fmt.Errorf("base cost must be non-negative, got %d", baseCents)
	}
	if !coverage.Valid() {
		return Breakdown{}, fmt.Errorf("unknown coverage type %q", coverage)
	}

	b := Breakdown{BaseCents: baseCents, Coverage: coverage}
	if !coverage.CoversSpecialty(specialty) {
		b.PatientCents = baseCents
		return b, nil
	}

	b.Percent = coverage.Percent()
	b.CoveredCents = roundHalfEven(baseCents*b.Percent, 100)
	b.PatientCents = baseCents - b.CoveredCents
	return b, nil
}

// roundHalfEven divides num by den rounding half to even. num and den must be
// non-negative; den must be positive.
func roundHalfEven(num, den int64) int64 {
	q := num / den
	r := num % den
	switch {
	case 2*r > den:
		q++
	case 2*r == den:
		if q%2 != 0 {
			q++
		}
	}
	return q
}
