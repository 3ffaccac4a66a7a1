package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// WhenParser resolves a natural-language time expression into an absolute
// instant, or fails. Implementations must prefer future resolution when the
// expression is ambiguous.
type WhenParser interface {
	ParseWhen(text, tz string, now time.Time) (time.Time, error)
}

// NLParser parses expressions like "in 2 hours", "tomorrow at 9am",
// "next Monday 10:00" in the user's timezone.
type NLParser struct {
	w *when.Parser
}

// NewNLParser builds a parser with the English and common rule sets.
func NewNLParser() *NLParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NLParser{w: w}
}

// ParseWhen resolves text relative to now in the named zone and returns the
// UTC instant. A bare time-of-day that already passed today rolls to tomorrow.
func (p *NLParser) ParseWhen(text, tz string, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	base := now.In(loc)

	res, err := p.w.Parse(text, base)
	if err != nil || res == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableTime, text)
	}
	t := res.Time
	// Prefer the future: an already-passed resolution within the last day is
	// the "bare time of day" case and moves to tomorrow.
	if !t.After(base) && base.Sub(t) < 24*time.Hour {
		t = t.Add(24 * time.Hour)
	}
	if !t.After(base) {
		return time.Time{}, fmt.Errorf("%w: %q resolves to the past", ErrUnparsableTime, text)
	}
	return t.UTC(), nil
}

// ParseHHMM parses "HH:MM" into hour and minute.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
