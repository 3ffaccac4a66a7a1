// Package policy holds the pure tier/credit decision functions: admission
// for new reminders and the per-reminder snooze allowance.
package policy

import (
	"fmt"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

// TierLimits describes the capacity a tier grants.
type TierLimits struct {
	MaxActive     int
	SnoozeLimit   int
	SnoozeOptions []int // snooze step choices in minutes, for the reminder keyboard
}

var tierTable = map[domain.Tier]TierLimits{
	domain.TierFree:     {MaxActive: 20, SnoozeLimit: 1, SnoozeOptions: []int{5, 15}},
	domain.TierSilver:   {MaxActive: 100, SnoozeLimit: 3, SnoozeOptions: []int{5, 15, 30}},
	domain.TierGold:     {MaxActive: 300, SnoozeLimit: 5, SnoozeOptions: []int{5, 15, 30, 60}},
	domain.TierPlatinum: {MaxActive: 1000, SnoozeLimit: 10, SnoozeOptions: []int{5, 15, 30, 60, 120, 240}},
}

// Limits returns the limits for the profile's tier, FREE for unknown tiers.
func Limits(p *domain.UserProfile) TierLimits {
	if l, ok := tierTable[p.Tier]; ok {
		return l
	}
	return tierTable[domain.TierFree]
}

// CanCreate decides whether the user may create another reminder given the
// current number of active (not done) reminders. The returned reason is
// human-readable and only set on denial.
func CanCreate(p *domain.UserProfile, activeCount int) (bool, string) {
	limits := Limits(p)
	if activeCount >= limits.MaxActive {
		return false, fmt.Sprintf(
			"Reminder limit reached: %d/%d active on the %s tier. Upgrade your plan for more reminders.",
			activeCount, limits.MaxActive, p.Tier)
	}
	if !p.IsPremium() && p.Credits <= 0 {
		return false, "No credits remaining. Redeem a code with /redeem or upgrade to a premium plan."
	}
	return true, ""
}

// ConsumeOnCreate returns how many credits a new reminder costs this user.
// Premium tiers create for free; the caller applies the deduction.
func ConsumeOnCreate(p *domain.UserProfile) int {
	if p.IsPremium() {
		return 0
	}
	return 1
}

// SnoozeLimit returns the per-reminder snooze allowance for the profile's tier.
func SnoozeLimit(p *domain.UserProfile) int {
	return Limits(p).SnoozeLimit
}
