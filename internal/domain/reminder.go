package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecurKind discriminates recurrence descriptors.
type RecurKind string

const (
	RecurDaily  RecurKind = "daily"
	RecurWeekly RecurKind = "weekly"
)

// Recurrence describes how a reminder repeats.
// DayOfWeek is Monday-based (0=Mon..6=Sun) and only meaningful for weekly;
// when nil the weekday of the previous occurrence is kept.
type Recurrence struct {
	Kind      RecurKind
	Interval  int // days or weeks, >= 1
	DayOfWeek *int
}

// Reminder is one scheduled notification, possibly recurring.
// DueAt is always stored in UTC; Timezone is the owner's zone at creation
// and drives local-time recurrence rollovers.
type Reminder struct {
	ID          string
	ChatID      int64
	UserID      int64
	Text        string
	DueAt       time.Time // UTC
	Timezone    string
	CreatedAt   time.Time // UTC
	SnoozesUsed int
	Recurring   *Recurrence
	Done        bool
}

// NewReminderID returns a short opaque id (10 hex chars of a v4 UUID).
func NewReminderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
