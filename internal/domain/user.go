package domain

import "time"

// Tier is a named service level controlling reminder capacity and snooze allowance.
type Tier string

const (
	TierFree     Tier = "FREE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// ParseTier maps a plan name to a known tier, defaulting to FREE.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierSilver, TierGold, TierPlatinum:
		return Tier(s)
	default:
		return TierFree
	}
}

// UserProfile holds per-user settings, tier and credit balance.
// Created lazily on first interaction; never deleted.
type UserProfile struct {
	UserID    int64
	Timezone  string // IANA name
	Tier      Tier
	Credits   int
	Name      string
	Username  string
	FirstSeen time.Time  // UTC
	LastSeen  *time.Time // UTC, nullable
}

// IsPremium reports whether the profile is on a paid tier.
// Premium tiers do not consume credits on reminder creation.
func (u *UserProfile) IsPremium() bool {
	return u.Tier != TierFree
}
