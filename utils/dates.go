// utils/dates.go
package utils

import (
	"math"
	"time"
)

const day = 24 * time.Hour

func BeginningOfDay(t time.Time) time.Time {
	year, month, d := t.Date()
	return time.Date(year, month, d, 0, 0, 0, 0, t.Location())
}

// BeginningOfMonth returns the first day of t's month with the time zeroed.
func BeginningOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// DaysUntil returns ceil((target - now) / 1 day). A partial day counts as a whole one.
func DaysUntil(now, target time.Time) int {
	return int(math.Ceil(float64(target.Sub(now)) / float64(day)))
}

// InLocation re-reads a calendar date (stored at UTC midnight) as midnight in loc.
func InLocation(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return date
	}
	year, month, d := date.Date()
	return time.Date(year, month, d, 0, 0, 0, 0, loc)
}

// USDate formats a date the way the mobile client's default locale shows it (M/D/YYYY).
func USDate(t time.Time) string {
	return t.Format("1/2/2006")
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	year, month, d := t.Date()
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC), nil
}
