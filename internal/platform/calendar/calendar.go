// Package calendar provides the date arithmetic the scheduling engine is
// built on: calendar-month addition with day clamping, weekend tests, and
// the compact wire formats used by the booking API.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// StampLayout is the booking wire format for a slot start: date plus hour.
	StampLayout = "2006-01-02-15"
	// DayLayout is the wire format for a calendar date.
	DayLayout = "2006-01-02"
)

// AddMonths advances t by n calendar months. When the source day-of-month
// does not exist in the target month the result clamps to the last valid
// day, so Jan 31 + 1 month is Feb 28 (Feb 29 in leap years). Time-of-day
// and location are preserved. Total for all inputs.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	ym := y*12 + int(m) - 1 + n
	ty, tm := ym/12, time.Month(ym%12+1)
	if last := DaysIn(ty, tm); d > last {
		d = last
	}
	h, min, sec := t.Clock()
	return time.Date(ty, tm, d, h, min, sec, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseStamp parses a slot start in the YYYY-MM-DD-HH wire format. The
// result is minute-zero in UTC.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(StampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD-HH", s)
	}
	return t, nil
}

// FormatStamp renders t in the YYYY-MM-DD-HH wire format.
func FormatStamp(t time.Time) string { return t.Format(StampLayout) }

// ParseDay parses a calendar date in the YYYY-MM-DD wire format.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// WeekdayName returns the lowercase weekday name used as the key of a
// provider's weekly availability template ("monday" .. "sunday").
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// ParseHourRange parses a template slot token of the form "HH-HH", e.g.
// "09-10". Both bounds must be in 0..24 and the range strictly positive.
func ParseHourRange(s string) (start, end int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid hour range %q, expected HH-HH", s)
	}
	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour range %q: %w", s, err)
	}
	end, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour range %q: %w", s, err)
	}
	if start < 0 || end > 24 || start >= end {
		return 0, 0, fmt.Errorf("invalid hour range %q: bounds out of order", s)
	}
	return start, end, nil
}

// FormatHourRange renders an hour pair back into the "HH-HH" token form.
func FormatHourRange(start, end int) string {
	return fmt.Sprintf("%02d-%02d", start, end)
}

// AtHour returns the given day at hour o'clock, minute zero.
func AtHour(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}
