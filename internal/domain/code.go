package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeKind discriminates redeem codes.
type CodeKind string

const (
	CodeCredits CodeKind = "credits"
	CodePremium CodeKind = "premium"
	CodePlan    CodeKind = "plan"
)

// RedeemCode grants credits or a plan upgrade when redeemed.
// A code past ExpiresAt or with Used >= MaxUses is inert.
type RedeemCode struct {
	Code      string
	Kind      CodeKind
	Amount    int
	ExpiresAt *time.Time // UTC, nullable
	MaxUses   int
	Used      int
	PlanName  string // for Kind == CodePlan
}

// Redeemable reports whether the code can still be used at the given instant.
func (c *RedeemCode) Redeemable(now time.Time) error {
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return ErrCodeExpired
	}
	if c.Used >= c.MaxUses {
		return ErrCodeExhausted
	}
	return nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func codeSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b)
}

// NewCreditCode generates a code like MIKU-CR100-A1B2C3.
func NewCreditCode(amount int) string {
	return fmt.Sprintf("MIKU-CR%d-%s", amount, codeSuffix(6))
}

// NewPlanCode generates a code like MIKU-SIL-A1B2C3.
func NewPlanCode(plan Tier) string {
	short := map[Tier]string{
		TierSilver:   "SIL",
		TierGold:     "GLD",
		TierPlatinum: "PLT",
	}
	code, ok := short[plan]
	if !ok {
		code = string(plan)
		if len(code) > 3 {
			code = code[:3]
		}
	}
	return fmt.Sprintf("MIKU-%s-%s", code, codeSuffix(6))
}
