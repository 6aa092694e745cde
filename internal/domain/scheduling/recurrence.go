package scheduling

import (
	"time"

	"github.com/carebook/carebook/internal/platform/calendar"
)

const (
	// DefaultOccurrences is used when a recurring booking names no count.
	DefaultOccurrences = 5
	// maxExpansionSteps bounds the expansion walk so sparse patterns with a
	// far-off until date cannot loop unbounded.
	maxExpansionSteps = 366
)

// Expansion is the result of unrolling a recurrence pattern. Occurrences are
// the bookable weekday datetimes; Skipped lists the weekend datetimes the
// pattern generated, which were dropped without counting toward the requested
// total.
type Expansion struct {
	Occurrences []time.Time
	Skipped     []time.Time
}

// occurrenceAt computes the step-th occurrence from the series start, so
// month-based patterns clamp to short months without drifting the anchor day
// (Jan 31 yields Feb 28 then Mar 31, not Mar 28).
func occurrenceAt(p Pattern, start time.Time, step int) time.Time {
	switch p {
	case PatternDaily:
		return start.AddDate(0, 0, step)
	case PatternWeekly:
		return start.AddDate(0, 0, 7*step)
	case PatternBiweekly:
		return start.AddDate(0, 0, 14*step)
	case PatternMonthly:
		return calendar.AddMonths(start, step)
	case PatternQuarterly:
		return calendar.AddMonths(start, 3*step)
	case PatternYearly:
		return calendar.AddMonths(start, 12*step)
	}
	return start
}

// Expand unrolls a recurrence seeded at start. The seed itself is not part of
// the expansion; candidates begin one step after it. Exactly one of count and
// until bounds the series: count asks for that many weekday occurrences,
// until admits occurrences up to and including that instant. With neither,
// DefaultOccurrences applies. Weekend occurrences are skipped in place rather
// than shifted to the next weekday.
func Expand(p Pattern, start time.Time, count int, until *time.Time) (*Expansion, error) {
	if p == PatternNone || !p.Valid() {
		return nil, validationf("invalid recurrence pattern %q", p)
	}
	if count < 0 {
		return nil, validationf("occurrence count must be positive")
	}
	if count > 0 && until != nil {
		return nil, validationf("count and until are mutually exclusive")
	}
	if count == 0 && until == nil {
		count = DefaultOccurrences
	}
	if until != nil && until.Before(start) {
		return nil, validationf("until precedes the series start")
	}

	exp := &Expansion{}
	for step := 1; step <= maxExpansionSteps; step++ {
		t := occurrenceAt(p, start, step)
		if until != nil && t.After(*until) {
			break
		}
		if count > 0 && len(exp.Occurrences) == count {
			break
		}
		if calendar.IsWeekend(t) {
			exp.Skipped = append(exp.Skipped, t)
		} else {
			exp.Occurrences = append(exp.Occurrences, t)
		}
	}
	return exp, nil
}
