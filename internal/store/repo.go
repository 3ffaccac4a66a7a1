package store

import (
	"context"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

// Repo defines durable storage for profiles, reminders and redeem codes.
// All read-modify-write cycles are serialized per reminder id by the callers.
type Repo interface {
	GetUser(ctx context.Context, userID int64) (*domain.UserProfile, error)
	PutUser(ctx context.Context, u *domain.UserProfile) error
	ListUserIDs(ctx context.Context) ([]int64, error)

	GetReminder(ctx context.Context, id string) (*domain.Reminder, error)
	PutReminder(ctx context.Context, r *domain.Reminder) error
	DeleteReminder(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error)
	ListAllReminders(ctx context.Context) ([]domain.Reminder, error)
	CountActive(ctx context.Context, userID int64) (int, error)

	GetCode(ctx context.Context, code string) (*domain.RedeemCode, error)
	PutCode(ctx context.Context, c *domain.RedeemCode) error
	IncrementCodeUse(ctx context.Context, code string) error

	Close() error
}
