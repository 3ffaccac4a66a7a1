package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	reminders map[string]domain.Reminder
	users     map[int64]domain.UserProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reminders: make(map[string]domain.Reminder),
		users:     make(map[int64]domain.UserProfile),
	}
}

func (f *fakeStore) GetReminder(_ context.Context, id string) (*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, fmt.Errorf("reminder %s: %w", id, domain.ErrNotFound)
	}
	cp := r
	return &cp, nil
}

func (f *fakeStore) PutReminder(_ context.Context, r *domain.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[r.ID] = *r
	return nil
}

func (f *fakeStore) ListAllReminders(_ context.Context) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Reminder
	for _, r := range f.reminders {
		res = append(res, r)
	}
	return res, nil
}

func (f *fakeStore) GetUser(_ context.Context, userID int64) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	cp := u
	return &cp, nil
}

func (f *fakeStore) snapshot(id string) domain.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminders[id]
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *fakeNotifier) Notify(r *domain.Reminder, _ *domain.UserProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, r.ID)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTestScheduler(store Store, n Notifier, grace time.Duration) *Scheduler {
	return New(store, zap.NewNop(), n, grace)
}

func putReminder(fs *fakeStore, r domain.Reminder) {
	_ = fs.PutReminder(context.Background(), &r)
}

func TestFire_OneShotRetires(t *testing.T) {
	fs := newFakeStore()
	fs.users[7] = domain.UserProfile{UserID: 7, Timezone: "UTC", Tier: domain.TierFree}
	putReminder(fs, domain.Reminder{ID: "r1", UserID: 7, Timezone: "UTC", DueAt: time.Now()})
	n := &fakeNotifier{}
	s := newTestScheduler(fs, n, time.Second)
	defer s.Stop()

	s.Arm("r1", time.Now())

	require.Eventually(t, func() bool { return n.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return fs.snapshot("r1").Done }, time.Second, 5*time.Millisecond)

	// A second arm after completion must not deliver again: fire re-reads
	// the store and sees the completion flag.
	s.Arm("r1", time.Now())
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, n.count())
}

func TestFire_RecurringRearmsEvenOnDeliveryFailure(t *testing.T) {
	fs := newFakeStore()
	fs.users[7] = domain.UserProfile{UserID: 7, Timezone: "UTC", Tier: domain.TierSilver}
	due := time.Now().UTC().Truncate(time.Second)
	putReminder(fs, domain.Reminder{
		ID: "r2", UserID: 7, Timezone: "UTC", DueAt: due, SnoozesUsed: 2,
		Recurring: &domain.Recurrence{Kind: domain.RecurDaily, Interval: 1},
	})
	n := &fakeNotifier{err: errors.New("telegram down")}
	s := newTestScheduler(fs, n, time.Second)
	defer s.Stop()

	s.Arm("r2", due)

	require.Eventually(t, func() bool { return n.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		snap := fs.snapshot("r2")
		return snap.DueAt.Equal(due.AddDate(0, 0, 1)) && !snap.Done && snap.SnoozesUsed == 0
	}, time.Second, 5*time.Millisecond)
	require.True(t, s.armed("r2"), "recurring reminder must be re-armed")
}

func TestFire_DeletedReminderIsNoop(t *testing.T) {
	fs := newFakeStore()
	n := &fakeNotifier{}
	s := newTestScheduler(fs, n, time.Second)
	defer s.Stop()

	// Arm an id whose record no longer exists.
	s.Arm("ghost", time.Now())
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, n.count())
}

func TestRearmAll_PastDueUsesGraceWindow(t *testing.T) {
	fs := newFakeStore()
	fs.users[7] = domain.UserProfile{UserID: 7, Timezone: "UTC", Tier: domain.TierFree}
	putReminder(fs, domain.Reminder{ID: "old", UserID: 7, Timezone: "UTC", DueAt: time.Now().Add(-time.Hour)})
	putReminder(fs, domain.Reminder{ID: "finished", UserID: 7, Timezone: "UTC", DueAt: time.Now().Add(-time.Hour), Done: true})
	n := &fakeNotifier{}
	s := newTestScheduler(fs, n, 150*time.Millisecond)
	defer s.Stop()

	require.NoError(t, s.RearmAll(context.Background()))

	// Not fired in the same synchronous pass, and not before the grace delay.
	require.Zero(t, n.count())
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, n.count())

	require.Eventually(t, func() bool { return n.count() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, s.armed("finished"), "done reminders must not be re-armed")
}

func TestDisarm_NoopOnUnknownAndCancelsPending(t *testing.T) {
	fs := newFakeStore()
	fs.users[7] = domain.UserProfile{UserID: 7, Timezone: "UTC", Tier: domain.TierFree}
	putReminder(fs, domain.Reminder{ID: "r3", UserID: 7, Timezone: "UTC", DueAt: time.Now()})
	n := &fakeNotifier{}
	s := newTestScheduler(fs, n, time.Second)
	defer s.Stop()

	s.Disarm("never-armed") // no-op, no panic

	s.Arm("r3", time.Now().Add(60*time.Millisecond))
	s.Disarm("r3")
	time.Sleep(150 * time.Millisecond)
	require.Zero(t, n.count())
	require.False(t, s.armed("r3"))
}

func TestArm_ReplacementFiresOnce(t *testing.T) {
	fs := newFakeStore()
	fs.users[7] = domain.UserProfile{UserID: 7, Timezone: "UTC", Tier: domain.TierFree}
	putReminder(fs, domain.Reminder{ID: "r4", UserID: 7, Timezone: "UTC", DueAt: time.Now()})
	n := &fakeNotifier{}
	s := newTestScheduler(fs, n, time.Second)
	defer s.Stop()

	s.Arm("r4", time.Now().Add(50*time.Millisecond))
	s.Arm("r4", time.Now().Add(90*time.Millisecond))

	time.Sleep(250 * time.Millisecond)
	require.Equal(t, 1, n.count())
}
