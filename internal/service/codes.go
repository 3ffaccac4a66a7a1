package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

// Redeem applies a code to the profile: credits are added, premium codes
// grant PLATINUM, plan codes grant their named tier. The use counter is
// bumped only after the grant is persisted.
func (s *Reminders) Redeem(ctx context.Context, profile *domain.UserProfile, codeStr string) (*domain.RedeemCode, error) {
	code, err := s.repo.GetCode(ctx, strings.ToUpper(strings.TrimSpace(codeStr)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCodeInvalid, err)
	}
	if err := code.Redeemable(domain.NowUTC()); err != nil {
		return nil, err
	}

	switch code.Kind {
	case domain.CodeCredits:
		profile.Credits += code.Amount
	case domain.CodePremium:
		// Legacy premium codes grant the top tier.
		profile.Tier = domain.TierPlatinum
	case domain.CodePlan:
		profile.Tier = domain.ParseTier(strings.ToUpper(code.PlanName))
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrCodeInvalid, code.Kind)
	}

	if err := s.repo.PutUser(ctx, profile); err != nil {
		return nil, err
	}
	if err := s.repo.IncrementCodeUse(ctx, code.Code); err != nil {
		return nil, err
	}
	s.log.Info("code redeemed",
		zap.String("code", code.Code), zap.String("kind", string(code.Kind)), zap.Int64("userID", profile.UserID))
	return code, nil
}

// GenerateCreditCodes mints count credit codes worth amount each, valid for
// validDays. Returns the code strings.
func (s *Reminders) GenerateCreditCodes(ctx context.Context, amount, count, validDays int) ([]string, error) {
	expires := domain.NowUTC().Add(time.Duration(validDays) * 24 * time.Hour)
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		c := &domain.RedeemCode{
			Code:      domain.NewCreditCode(amount),
			Kind:      domain.CodeCredits,
			Amount:    amount,
			ExpiresAt: &expires,
			MaxUses:   1,
		}
		if err := s.repo.PutCode(ctx, c); err != nil {
			return nil, err
		}
		codes = append(codes, c.Code)
	}
	return codes, nil
}

// GeneratePlanCodes mints count single-use codes granting the given plan.
func (s *Reminders) GeneratePlanCodes(ctx context.Context, plan domain.Tier, count, validDays int) ([]string, error) {
	expires := domain.NowUTC().Add(time.Duration(validDays) * 24 * time.Hour)
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		c := &domain.RedeemCode{
			Code:      domain.NewPlanCode(plan),
			Kind:      domain.CodePlan,
			ExpiresAt: &expires,
			MaxUses:   1,
			PlanName:  string(plan),
		}
		if err := s.repo.PutCode(ctx, c); err != nil {
			return nil, err
		}
		codes = append(codes, c.Code)
	}
	return codes, nil
}

// ListUserIDs returns every known user id (used by broadcast).
func (s *Reminders) ListUserIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListUserIDs(ctx)
}

// GrantCredits adds credits to any user's balance (admin operation).
func (s *Reminders) GrantCredits(ctx context.Context, target int64, amount int) (*domain.UserProfile, error) {
	u, err := s.repo.GetUser(ctx, target)
	if err != nil {
		return nil, err
	}
	u.Credits += amount
	if err := s.repo.PutUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GrantPremium upgrades any user to PLATINUM (admin operation).
func (s *Reminders) GrantPremium(ctx context.Context, target int64) (*domain.UserProfile, error) {
	u, err := s.repo.GetUser(ctx, target)
	if err != nil {
		return nil, err
	}
	u.Tier = domain.TierPlatinum
	if err := s.repo.PutUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
