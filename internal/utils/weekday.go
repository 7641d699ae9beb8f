package utils

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a weekday name ("mon", "MONDAY") or number (0=Sunday, 6=Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(s)
	if err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var weekdays []time.Weekday
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		wd, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		weekdays = append(weekdays, wd)
	}
	return NormalizeWeekdays(weekdays), nil
}

// NormalizeWeekdays removes duplicates and orders days Monday first.
func NormalizeWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return (int(out[i])+6)%7 < (int(out[j])+6)%7
	})
	return out
}

// FormatWeekdays renders days as "Mon,Wed,Fri".
func FormatWeekdays(days []time.Weekday) string {
	names := make([]string, 0, len(days))
	for _, wd := range NormalizeWeekdays(days) {
		names = append(names, wd.String()[:3])
	}
	return strings.Join(names, ",")
}

// WeekdayName returns the upper-case name used on the wire ("MONDAY").
func WeekdayName(wd time.Weekday) string {
	return strings.ToUpper(wd.String())
}
