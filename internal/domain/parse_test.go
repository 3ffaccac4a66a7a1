package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseWhen_Relative(t *testing.T) {
	p := NewNLParser()
	now := mustLocalUTC(t, "Europe/Berlin", 2025, time.May, 5, 10, 0)

	got, err := p.ParseWhen("in 2 hours", "Europe/Berlin", now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := now.Add(2 * time.Hour); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestParseWhen_BareTimePrefersFuture(t *testing.T) {
	p := NewNLParser()
	// 18:00 local; "9am" already passed today and must resolve to tomorrow.
	now := mustLocalUTC(t, "Europe/Berlin", 2025, time.May, 5, 18, 0)

	got, err := p.ParseWhen("at 9am", "Europe/Berlin", now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.After(now) {
		t.Fatalf("resolved to the past: %s", got)
	}
	if want := "Tue 2025-05-06 09:00"; localClock(t, got, "Europe/Berlin") != want {
		t.Fatalf("want %s, got %s", want, localClock(t, got, "Europe/Berlin"))
	}
}

func TestParseWhen_Unparsable(t *testing.T) {
	p := NewNLParser()
	if _, err := p.ParseWhen("qwerty", "UTC", time.Now()); !errors.Is(err, ErrUnparsableTime) {
		t.Fatalf("want ErrUnparsableTime, got %v", err)
	}
}

func TestParseWhen_BadTimezone(t *testing.T) {
	p := NewNLParser()
	if _, err := p.ParseWhen("in 1 hour", "Nope/Nowhere", time.Now()); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("want ErrInvalidTimezone, got %v", err)
	}
}

func TestParseHHMM(t *testing.T) {
	h, m, err := ParseHHMM("07:30")
	if err != nil || h != 7 || m != 30 {
		t.Fatalf("want 7:30, got %d:%d err=%v", h, m, err)
	}
	for _, bad := range []string{"", "7", "25:00", "12:61", "ab:cd"} {
		if _, _, err := ParseHHMM(bad); err == nil {
			t.Fatalf("want error for %q", bad)
		}
	}
}
