package core

import (
	"strings"
	"time"
)

// TimestampLayout is the canonical stored form. It is fixed width and UTC, so
// string order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const dateLayout = "2006-01-02"

var acceptedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// ParseTimestamp reads the precisions callers commonly send. Values without
// a zone are taken as UTC. The result is truncated to milliseconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "date", Reason: "cannot be empty"}
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Reason: "expected ISO-8601 (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"}
}

// IsDateOnly reports whether s carries only a calendar date.
func IsDateOnly(s string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(s))
	return err == nil
}

// EndOfDay returns the last representable millisecond of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// FormatTimestamp renders t in the canonical stored form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
