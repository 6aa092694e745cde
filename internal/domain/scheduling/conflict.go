package scheduling

import "time"

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back slots sharing a boundary do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict returns the first active appointment overlapping the candidate
// interval, or nil. Cancelled appointments never conflict.
func FindConflict(existing []*Appointment, start, end time.Time) *Appointment {
	for _, a := range existing {
		if !a.Status.Active() {
			continue
		}
		if Overlaps(a.Start, a.End, start, end) {
			return a
		}
	}
	return nil
}
