package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// DateOf returns the calendar day of t (in t's own location) as midnight UTC.
// All day arithmetic in the module is done on values produced by DateOf so
// that DST transitions never shift a day.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// FormatDate formats a calendar day as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(constants.DateFormat)
}

// AddDays shifts a calendar day by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// WeekStart returns the Monday of the ISO week containing d.
func WeekStart(d time.Time) time.Time {
	d = DateOf(d)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return AddDays(d, -offset)
}

// MonthBounds returns the first and last day of the calendar month containing d.
func MonthBounds(d time.Time) (time.Time, time.Time) {
	d = DateOf(d)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// MinDate returns the earlier of two days.
func MinDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the later of two days.
func MaxDate(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
