package domain

import (
	"fmt"
	"time"
)

// NextOccurrence computes the next absolute due instant for a recurring
// reminder given its last due instant (UTC) and the reminder's timezone.
// It is pure: it never consults wall-clock now, so recurrence chains replayed
// from persisted history are reproducible.
//
// Daily advances by Interval days at the same local wall-clock time.
// Weekly advances by Interval weeks, then forward day-by-day (never backward)
// until the local weekday matches DayOfWeek; this keeps progress monotonic
// even when DST shifts the civil date arithmetic. The result is always
// strictly after lastUTC.
func NextOccurrence(rec *Recurrence, lastUTC time.Time, tz string) (time.Time, error) {
	if rec == nil {
		return time.Time{}, ErrBadRecurrence
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}
	last := lastUTC.In(loc)

	switch rec.Kind {
	case RecurDaily:
		return addLocalDays(last, interval).UTC(), nil

	case RecurWeekly:
		next := addLocalDays(last, interval*7)
		dow := MondayWeekday(last)
		if rec.DayOfWeek != nil {
			dow = *rec.DayOfWeek
		}
		for MondayWeekday(next) != dow {
			next = addLocalDays(next, 1)
		}
		return next.UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("%w: kind %q", ErrBadRecurrence, rec.Kind)
	}
}

// addLocalDays advances by civil days keeping the local wall-clock time,
// which differs from adding 24h multiples on DST transition days.
func addLocalDays(t time.Time, days int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+days,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// FirstOccurrence computes the initial due instant for a new recurring
// reminder: the next local instant at hour:minute strictly after nowUTC,
// additionally matching DayOfWeek for weekly descriptors.
func FirstOccurrence(rec *Recurrence, nowUTC time.Time, tz string, hour, minute int) (time.Time, error) {
	if rec == nil {
		return time.Time{}, ErrBadRecurrence
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	now := nowUTC.In(loc)
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)

	switch rec.Kind {
	case RecurDaily:
		if !target.After(now) {
			interval := rec.Interval
			if interval < 1 {
				interval = 1
			}
			target = addLocalDays(target, interval)
		}
		return target.UTC(), nil

	case RecurWeekly:
		dow := MondayWeekday(target)
		if rec.DayOfWeek != nil {
			dow = *rec.DayOfWeek
		}
		for MondayWeekday(target) != dow || !target.After(now) {
			target = addLocalDays(target, 1)
		}
		return target.UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("%w: kind %q", ErrBadRecurrence, rec.Kind)
	}
}
