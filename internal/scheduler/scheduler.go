// Package scheduler owns the transient mapping from reminder ids to armed
// timers. Durable reminder state lives in the store, which is re-read on
// every firing so the scheduler never acts on a deleted or completed
// reminder.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

// Store is the slice of the repository the scheduler needs.
type Store interface {
	GetReminder(ctx context.Context, id string) (*domain.Reminder, error)
	PutReminder(ctx context.Context, r *domain.Reminder) error
	ListAllReminders(ctx context.Context) ([]domain.Reminder, error)
	GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error)
}

// Notifier delivers a due reminder to its owner. Errors are logged and
// swallowed by the scheduler: a failed delivery still retires or re-arms
// the reminder (at most one attempt per computed occurrence).
type Notifier interface {
	Notify(r *domain.Reminder, profile *domain.UserProfile) error
}

// DefaultGrace is the delay applied to past-due reminders on startup so the
// transport can finish initializing before the backlog fires.
const DefaultGrace = 2 * time.Second

type entry struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler arms one timer per pending reminder id.
type Scheduler struct {
	store    Store
	log      *zap.Logger
	notifier Notifier
	grace    time.Duration

	mu     sync.Mutex
	timers map[string]entry
	gen    uint64
}

// New creates a Scheduler. A non-positive grace falls back to DefaultGrace.
func New(store Store, log *zap.Logger, notifier Notifier, grace time.Duration) *Scheduler {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Scheduler{
		store:    store,
		log:      log,
		notifier: notifier,
		grace:    grace,
		timers:   make(map[string]entry),
	}
}

// Arm registers a timer firing at due for the given reminder id, replacing
// any existing timer for that id. A due instant in the past fires as soon
// as practicable.
func (s *Scheduler) Arm(id string, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[id]; ok {
		e.timer.Stop()
	}
	s.gen++
	gen := s.gen
	delay := time.Until(due)
	if delay < 0 {
		delay = 0
	}
	s.timers[id] = entry{
		timer: time.AfterFunc(delay, func() { s.fire(id, gen) }),
		gen:   gen,
	}
}

// Disarm cancels the pending timer for id if present; unknown ids are a
// no-op. After Disarm returns, a callback that has not yet started for that
// id will not deliver.
func (s *Scheduler) Disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[id]; ok {
		e.timer.Stop()
		delete(s.timers, id)
	}
}

// Stop cancels every pending timer. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
}

// RearmAll arms every non-completed reminder in the store. Due instants
// already in the past are pushed to now+grace instead of firing immediately
// in a tight startup loop.
func (s *Scheduler) RearmAll(ctx context.Context) error {
	rems, err := s.store.ListAllReminders(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	armed := 0
	for _, r := range rems {
		if r.Done {
			continue
		}
		due := r.DueAt
		if due.Before(now) {
			due = now.Add(s.grace)
		}
		s.Arm(r.ID, due)
		armed++
	}
	s.log.Info("reminders re-armed", zap.Int("count", armed))
	return nil
}

// fire runs in the timer's goroutine. It bails out if the timer was
// disarmed or replaced after the callback was scheduled, then re-reads the
// reminder to guard against concurrent completion or deletion.
func (s *Scheduler) fire(id string, gen uint64) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	ctx := context.Background()
	rem, err := s.store.GetReminder(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("read reminder failed", zap.String("id", id), zap.Error(err))
		}
		return
	}
	if rem.Done {
		return
	}

	profile, err := s.store.GetUser(ctx, rem.UserID)
	if err != nil {
		s.log.Warn("read profile failed, using defaults",
			zap.String("id", id), zap.Int64("userID", rem.UserID), zap.Error(err))
		profile = &domain.UserProfile{UserID: rem.UserID, Timezone: rem.Timezone, Tier: domain.TierFree}
	}

	if err := s.notifier.Notify(rem, profile); err != nil {
		// Deliberately swallowed: at most one attempt per occurrence.
		s.log.Error("delivery failed", zap.String("id", id), zap.Int64("chatID", rem.ChatID), zap.Error(err))
	}

	if rem.Recurring == nil {
		rem.Done = true
		if err := s.store.PutReminder(ctx, rem); err != nil {
			s.log.Error("retire reminder failed", zap.String("id", id), zap.Error(err))
		}
		return
	}

	next, err := domain.NextOccurrence(rem.Recurring, rem.DueAt, rem.Timezone)
	if err != nil {
		// Malformed descriptor: retire instead of looping on a bad record.
		s.log.Error("next occurrence failed, retiring", zap.String("id", id), zap.Error(err))
		rem.Done = true
		if err := s.store.PutReminder(ctx, rem); err != nil {
			s.log.Error("retire reminder failed", zap.String("id", id), zap.Error(err))
		}
		return
	}
	rem.DueAt = next
	// Each occurrence gets the full tier snooze allowance.
	rem.SnoozesUsed = 0
	if err := s.store.PutReminder(ctx, rem); err != nil {
		s.log.Error("persist next occurrence failed", zap.String("id", id), zap.Error(err))
		return
	}
	s.Arm(rem.ID, next)
}

// armed reports whether a timer is pending for id (test hook).
func (s *Scheduler) armed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}
