package timeutil

import (
	"time"

	"github.com/crmarques/boardprompt/faults"
)

// startedLayouts covers the timestamp shapes trackers emit for worklog
// start times.
var startedLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// ParseStarted parses a worklog start timestamp.
func ParseStarted(value string) (time.Time, error) {
	for _, layout := range startedLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, faults.Validation("unrecognized worklog start time "+value, nil)
}

// FormatStarted renders a start timestamp the way the tracker expects it.
func FormatStarted(at time.Time) string {
	return at.Format("2006-01-02T15:04:05.000-0700")
}

// SameDay reports whether two instants fall on the same calendar day in
// the reference time's location.
func SameDay(at, reference time.Time) bool {
	at = at.In(reference.Location())
	return at.Year() == reference.Year() && at.YearDay() == reference.YearDay()
}

// IsToday reports whether the instant falls on today's calendar day.
func IsToday(at, now time.Time) bool {
	return SameDay(at, now)
}

// IsYesterday reports whether the instant falls on yesterday's calendar
// day.
func IsYesterday(at, now time.Time) bool {
	return SameDay(at, now.AddDate(0, 0, -1))
}
