package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUserRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetUser(ctx, 42)
	require.ErrorIs(t, err, domain.ErrNotFound)

	u := &domain.UserProfile{
		UserID:    42,
		Timezone:  "Europe/Berlin",
		Tier:      domain.TierFree,
		Credits:   15,
		Name:      "Alice",
		FirstSeen: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.PutUser(ctx, u))

	got, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, u.Timezone, got.Timezone)
	require.Equal(t, u.Credits, got.Credits)
	require.Equal(t, domain.TierFree, got.Tier)

	got.Credits = 14
	got.Tier = domain.TierGold
	require.NoError(t, repo.PutUser(ctx, got))

	got, err = repo.GetUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 14, got.Credits)
	require.Equal(t, domain.TierGold, got.Tier)

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{42}, ids)
}

func TestReminderRoundTripAndOrdering(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	dow := 2
	later := &domain.Reminder{
		ID: "bbbbbbbbbb", ChatID: 1, UserID: 7, Text: "later",
		DueAt: now.Add(2 * time.Hour), Timezone: "UTC", CreatedAt: now,
		Recurring: &domain.Recurrence{Kind: domain.RecurWeekly, Interval: 1, DayOfWeek: &dow},
	}
	sooner := &domain.Reminder{
		ID: "aaaaaaaaaa", ChatID: 1, UserID: 7, Text: "sooner",
		DueAt: now.Add(time.Hour), Timezone: "UTC", CreatedAt: now,
	}
	require.NoError(t, repo.PutReminder(ctx, later))
	require.NoError(t, repo.PutReminder(ctx, sooner))

	list, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "sooner", list[0].Text)
	require.Equal(t, "later", list[1].Text)

	got, err := repo.GetReminder(ctx, "bbbbbbbbbb")
	require.NoError(t, err)
	require.NotNil(t, got.Recurring)
	require.Equal(t, domain.RecurWeekly, got.Recurring.Kind)
	require.NotNil(t, got.Recurring.DayOfWeek)
	require.Equal(t, 2, *got.Recurring.DayOfWeek)
	require.True(t, got.DueAt.Equal(later.DueAt))

	n, err := repo.CountActive(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got.Done = true
	require.NoError(t, repo.PutReminder(ctx, got))
	n, err = repo.CountActive(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.DeleteReminder(ctx, "aaaaaaaaaa"))
	_, err = repo.GetReminder(ctx, "aaaaaaaaaa")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// deleting an unknown id is a no-op
	require.NoError(t, repo.DeleteReminder(ctx, "aaaaaaaaaa"))
}

func TestCodeRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	c := &domain.RedeemCode{
		Code: "MIKU-CR100-ABC123", Kind: domain.CodeCredits,
		Amount: 100, ExpiresAt: &exp, MaxUses: 2,
	}
	require.NoError(t, repo.PutCode(ctx, c))

	got, err := repo.GetCode(ctx, "MIKU-CR100-ABC123")
	require.NoError(t, err)
	require.Equal(t, domain.CodeCredits, got.Kind)
	require.Equal(t, 100, got.Amount)
	require.NotNil(t, got.ExpiresAt)
	require.True(t, got.ExpiresAt.Equal(exp))

	require.NoError(t, repo.IncrementCodeUse(ctx, c.Code))
	got, err = repo.GetCode(ctx, c.Code)
	require.NoError(t, err)
	require.Equal(t, 1, got.Used)

	_, err = repo.GetCode(ctx, "NOPE")
	require.True(t, errors.Is(err, domain.ErrNotFound))
}
