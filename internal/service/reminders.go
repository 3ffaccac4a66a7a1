// Package service implements the reminder operations: admission-checked
// creation, snooze, completion, deletion, timezone changes and redeem codes.
// All caller-input validation happens here; the scheduler and store below
// this layer assume clean data.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
	"github.com/H3R0SHI/reminder-bot/internal/policy"
	"github.com/H3R0SHI/reminder-bot/internal/store"
)

// Timers is the scheduler surface the service needs.
type Timers interface {
	Arm(id string, due time.Time)
	Disarm(id string)
}

// Reminders wires the store, policy, parser and scheduler together.
type Reminders struct {
	repo           store.Repo
	timers         Timers
	parser         domain.WhenParser
	log            *zap.Logger
	defaultTZ      string
	initialCredits int
}

// New creates the reminder service.
func New(repo store.Repo, timers Timers, parser domain.WhenParser, log *zap.Logger, defaultTZ string, initialCredits int) *Reminders {
	return &Reminders{
		repo:           repo,
		timers:         timers,
		parser:         parser,
		log:            log,
		defaultTZ:      defaultTZ,
		initialCredits: initialCredits,
	}
}

// EnsureUser returns the profile for userID, creating it lazily with the
// initial credit grant on first interaction. LastSeen is refreshed.
func (s *Reminders) EnsureUser(ctx context.Context, userID int64, name, username string) (*domain.UserProfile, error) {
	now := domain.NowUTC()
	u, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		u = &domain.UserProfile{
			UserID:    userID,
			Timezone:  s.defaultTZ,
			Tier:      domain.TierFree,
			Credits:   s.initialCredits,
			Name:      name,
			Username:  username,
			FirstSeen: now,
			LastSeen:  &now,
		}
		if err := s.repo.PutUser(ctx, u); err != nil {
			return nil, err
		}
		s.log.Info("new user", zap.Int64("userID", userID))
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	u.LastSeen = &now
	if name != "" {
		u.Name = name
	}
	if username != "" {
		u.Username = username
	}
	if err := s.repo.PutUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// admit runs the create-time policy check and consumes a credit if the tier
// requires one. No state is persisted on denial.
func (s *Reminders) admit(ctx context.Context, profile *domain.UserProfile) error {
	active, err := s.repo.CountActive(ctx, profile.UserID)
	if err != nil {
		return err
	}
	ok, reason := policy.CanCreate(profile, active)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAdmissionDenied, reason)
	}
	if cost := policy.ConsumeOnCreate(profile); cost > 0 {
		profile.Credits -= cost
		if err := s.repo.PutUser(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}

// CreateReminder parses whenText in the user's timezone, checks admission,
// persists the reminder and arms its timer.
func (s *Reminders) CreateReminder(ctx context.Context, profile *domain.UserProfile, chatID int64, whenText, text string) (*domain.Reminder, error) {
	now := domain.NowUTC()
	due, err := s.parser.ParseWhen(whenText, profile.Timezone, now)
	if err != nil {
		return nil, err
	}
	if err := s.admit(ctx, profile); err != nil {
		return nil, err
	}
	rem := &domain.Reminder{
		ID:        domain.NewReminderID(),
		ChatID:    chatID,
		UserID:    profile.UserID,
		Text:      text,
		DueAt:     due,
		Timezone:  profile.Timezone,
		CreatedAt: now,
	}
	if err := s.repo.PutReminder(ctx, rem); err != nil {
		return nil, err
	}
	s.timers.Arm(rem.ID, rem.DueAt)
	s.log.Info("reminder created",
		zap.String("id", rem.ID), zap.Int64("userID", profile.UserID), zap.Time("dueAt", rem.DueAt))
	return rem, nil
}

// CreateRecurring creates a daily or weekly reminder whose first occurrence
// is the next local instant at hhmm (and the target weekday for weekly),
// strictly in the future.
func (s *Reminders) CreateRecurring(ctx context.Context, profile *domain.UserProfile, chatID int64, text string, rec *domain.Recurrence, hhmm string) (*domain.Reminder, error) {
	hour, minute, err := domain.ParseHHMM(hhmm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableTime, err)
	}
	now := domain.NowUTC()
	due, err := domain.FirstOccurrence(rec, now, profile.Timezone, hour, minute)
	if err != nil {
		return nil, err
	}
	if err := s.admit(ctx, profile); err != nil {
		return nil, err
	}
	rem := &domain.Reminder{
		ID:        domain.NewReminderID(),
		ChatID:    chatID,
		UserID:    profile.UserID,
		Text:      text,
		DueAt:     due,
		Timezone:  profile.Timezone,
		CreatedAt: now,
		Recurring: rec,
	}
	if err := s.repo.PutReminder(ctx, rem); err != nil {
		return nil, err
	}
	s.timers.Arm(rem.ID, rem.DueAt)
	s.log.Info("recurring reminder created",
		zap.String("id", rem.ID), zap.String("kind", string(rec.Kind)), zap.Time("first", rem.DueAt))
	return rem, nil
}

// List returns the user's reminders ordered by due instant.
func (s *Reminders) List(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	return s.repo.ListByUser(ctx, userID)
}

// owned loads a reminder and verifies ownership.
func (s *Reminders) owned(ctx context.Context, userID int64, id string) (*domain.Reminder, error) {
	rem, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if rem.UserID != userID {
		return nil, fmt.Errorf("reminder %s: %w", id, domain.ErrUnauthorized)
	}
	return rem, nil
}

// Snooze pushes the reminder's due instant to now+minutes if the tier's
// snooze allowance permits. On refusal the due instant and counter are left
// untouched.
func (s *Reminders) Snooze(ctx context.Context, profile *domain.UserProfile, id string, minutes int) (*domain.Reminder, error) {
	rem, err := s.owned(ctx, profile.UserID, id)
	if err != nil {
		return nil, err
	}
	limit := policy.SnoozeLimit(profile)
	if rem.SnoozesUsed >= limit {
		return nil, fmt.Errorf("%w: %d/%d used on the %s tier",
			domain.ErrSnoozeLimitExceeded, rem.SnoozesUsed, limit, profile.Tier)
	}
	rem.DueAt = domain.NowUTC().Add(time.Duration(minutes) * time.Minute)
	rem.SnoozesUsed++
	if err := s.repo.PutReminder(ctx, rem); err != nil {
		return nil, err
	}
	s.timers.Arm(rem.ID, rem.DueAt)
	return rem, nil
}

// Complete marks a reminder done and cancels its timer.
func (s *Reminders) Complete(ctx context.Context, profile *domain.UserProfile, id string) error {
	rem, err := s.owned(ctx, profile.UserID, id)
	if err != nil {
		return err
	}
	rem.Done = true
	if err := s.repo.PutReminder(ctx, rem); err != nil {
		return err
	}
	s.timers.Disarm(rem.ID)
	return nil
}

// Delete removes a reminder and cancels its timer.
func (s *Reminders) Delete(ctx context.Context, profile *domain.UserProfile, id string) error {
	if _, err := s.owned(ctx, profile.UserID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteReminder(ctx, id); err != nil {
		return err
	}
	s.timers.Disarm(id)
	return nil
}

// SetTimezone validates and persists a new timezone for the profile.
// Existing reminders keep the zone they were created with.
func (s *Reminders) SetTimezone(ctx context.Context, profile *domain.UserProfile, tz string) error {
	canonical, err := domain.ValidateTZ(tz)
	if err != nil {
		return err
	}
	profile.Timezone = canonical
	return s.repo.PutUser(ctx, profile)
}
