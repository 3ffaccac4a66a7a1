package domain

import (
	"fmt"
	"time"
)

// NowUTC returns the current instant in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToISO serializes an absolute instant as RFC3339 in UTC.
func ToISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FromISO parses an RFC3339 string back to the exact UTC instant.
func FromISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse iso time: %w", err)
	}
	return t.UTC(), nil
}

// ValidateTZ checks that tz is a valid IANA location and returns its canonical name.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return loc.String(), nil
}

// Localize returns t expressed in the named IANA zone.
func Localize(t time.Time, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return t.In(loc), nil
}

// Humanize formats t in the user's timezone for display,
// e.g. "Mon, 02 Jan 2006 15:04 MST". Falls back to UTC on a bad zone.
func Humanize(t time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Mon, 02 Jan 2006 15:04 MST")
}

// MondayWeekday converts Go's Sunday-based weekday to Monday-based (0=Mon..6=Sun).
func MondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
