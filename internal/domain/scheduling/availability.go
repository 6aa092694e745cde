package scheduling

import (
	"time"

	"github.com/carebook/carebook/internal/platform/calendar"
)

// MaxAvailabilityDays caps the span of one availability query.
const MaxAvailabilityDays = 31

// ComputeAvailability lists every hour slot the provider's weekly template
// declares between from and to, inclusive of both days. Slots overlapped by
// an active appointment are flagged as booked rather than omitted. The range
// may not exceed MaxAvailabilityDays.
func ComputeAvailability(provider *ProviderInfo, booked []*Appointment, from, to time.Time) ([]Slot, error) {
	from = from.Truncate(24 * time.Hour)
	to = to.Truncate(24 * time.Hour)
	if to.Before(from) {
		return nil, validationf("availability range end precedes start")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxAvailabilityDays {
		return nil, &RangeTooLargeError{Days: days, Max: MaxAvailabilityDays}
	}

	var out []Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		blocks := provider.WeeklyHours[calendar.WeekdayName(day)]
		for _, b := range blocks {
			for hour := b.Start; hour < b.End; hour++ {
				start := calendar.AtHour(day, hour)
				end := start.Add(SlotDuration)
				taken := FindConflict(booked, start, end) != nil
				out = append(out, Slot{Start: start, End: end, IsBooked: taken})
			}
		}
	}
	return out, nil
}

// WithinHours reports whether the hour slot starting at start falls inside
// the provider's weekly template.
func WithinHours(provider *ProviderInfo, start time.Time) bool {
	blocks := provider.WeeklyHours[calendar.WeekdayName(start)]
	h := start.Hour()
	for _, b := range blocks {
		if h >= b.Start && h < b.End {
			return true
		}
	}
	return false
}
