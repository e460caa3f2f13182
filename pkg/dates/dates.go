// Package dates centralizes civil-date handling. Clinical dates (reference
// and delivery dates) are day-precision values; serializing them as
// midnight-local timestamps shifts the day when crossing timezones, so every
// civil date is pinned to 12:00 UTC before it is stored or compared.
package dates

import (
	"fmt"
	"time"
)

const civilLayout = "2006-01-02"

// NormalizeToUTCNoon returns the civil date of t (in UTC) pinned to 12:00 UTC.
func NormalizeToUTCNoon(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
}

// ParseCivilDate parses a "2006-01-02" string into a UTC-noon timestamp.
func ParseCivilDate(s string) (time.Time, error) {
	t, err := time.Parse(civilLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse civil date %q: %w", s, err)
	}
	return NormalizeToUTCNoon(t), nil
}

// FormatCivilDate renders t's UTC civil date as "2006-01-02".
func FormatCivilDate(t time.Time) string {
	return t.UTC().Format(civilLayout)
}

// SameOrBeforeToday reports whether t's civil date is today or earlier,
// with "today" taken from now. Both sides are compared as UTC civil dates.
func SameOrBeforeToday(t, now time.Time) bool {
	return !NormalizeToUTCNoon(t).After(NormalizeToUTCNoon(now))
}

// WithinLastDays reports whether t falls inside the window of the last n
// days ending at now (inclusive of today). n <= 0 always reports true.
func WithinLastDays(t, now time.Time, n int) bool {
	if n <= 0 {
		return true
	}
	cutoff := NormalizeToUTCNoon(now).AddDate(0, 0, -n)
	return !NormalizeToUTCNoon(t).Before(cutoff)
}
