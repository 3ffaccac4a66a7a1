package domain

import (
	"errors"
	"testing"
	"time"
)

func TestISORoundTrip(t *testing.T) {
	for _, tz := range []string{"UTC", "Europe/Berlin", "Asia/Tokyo", "America/New_York"} {
		orig := mustLocalUTC(t, tz, 2025, time.July, 14, 18, 45)
		back, err := FromISO(ToISO(orig))
		if err != nil {
			t.Fatalf("%s: round trip: %v", tz, err)
		}
		if !back.Equal(orig) {
			t.Fatalf("%s: want %s, got %s", tz, orig, back)
		}
	}
}

func TestLocalizeRoundTripsToSameInstant(t *testing.T) {
	orig := time.Date(2025, time.January, 10, 3, 0, 0, 0, time.UTC)
	local, err := Localize(orig, "Australia/Sydney")
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if !local.Equal(orig) {
		t.Fatalf("localize changed the instant: %s vs %s", local, orig)
	}
	if local.Location().String() != "Australia/Sydney" {
		t.Fatalf("wrong location: %s", local.Location())
	}
}

func TestLocalizeInvalidTimezone(t *testing.T) {
	if _, err := Localize(time.Now(), "Mars/Olympus"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("want ErrInvalidTimezone, got %v", err)
	}
	if _, err := ValidateTZ("not-a-zone"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("want ErrInvalidTimezone, got %v", err)
	}
}

func TestValidateTZCanonical(t *testing.T) {
	name, err := ValidateTZ("Europe/Berlin")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if name != "Europe/Berlin" {
		t.Fatalf("want Europe/Berlin, got %s", name)
	}
}

func TestHumanize(t *testing.T) {
	instant := mustLocalUTC(t, "Europe/Moscow", 2025, time.May, 5, 19, 46)
	got := Humanize(instant, "Europe/Moscow")
	if got != "Mon, 05 May 2025 19:46 MSK" {
		t.Fatalf("got %q", got)
	}
}

func TestMondayWeekday(t *testing.T) {
	// 2025-06-02 is a Monday.
	for i := 0; i < 7; i++ {
		d := time.Date(2025, time.June, 2+i, 0, 0, 0, 0, time.UTC)
		if got := MondayWeekday(d); got != i {
			t.Fatalf("day %s: want %d, got %d", d.Weekday(), i, got)
		}
	}
}
