// AngelaMos | 2026
// policy.go

package reward

import (
	"time"

	"github.com/pegplug/pegplug-backend/internal/config"
	"github.com/pegplug/pegplug-backend/internal/user"
)

// Policy holds the tier-dependent reward rules. All methods are pure
// functions over a user snapshot and an instant.
type Policy struct {
	basicSpins   int
	premiumSpins int
	basicWin     float64
	premiumWin   float64
}

const (
	defaultBasicSpins   = 1
	defaultPremiumSpins = 3
	defaultBasicWin     = 0.30
	defaultPremiumWin   = 0.40
)

func NewPolicy(cfg config.RewardConfig) Policy {
	p := Policy{
		basicSpins:   cfg.BasicDailySpins,
		premiumSpins: cfg.PremiumDailySpins,
		basicWin:     cfg.BasicWinRate,
		premiumWin:   cfg.PremiumWinRate,
	}

	if p.basicSpins <= 0 {
		p.basicSpins = defaultBasicSpins
	}
	if p.premiumSpins <= 0 {
		p.premiumSpins = defaultPremiumSpins
	}
	if p.basicWin <= 0 || p.basicWin > 1 {
		p.basicWin = defaultBasicWin
	}
	if p.premiumWin <= 0 || p.premiumWin > 1 {
		p.premiumWin = defaultPremiumWin
	}

	return p
}

func (p Policy) DailySpinAllotment(tier string) int {
	if tier == user.TierPremium {
		return p.premiumSpins
	}
	return p.basicSpins
}

func (p Policy) WinProbability(tier string) float64 {
	if tier == user.TierPremium {
		return p.premiumWin
	}
	return p.basicWin
}

// NeedsDailyRefresh reports whether the user's spin balance is stale:
// the last spin date falls on an earlier UTC calendar day than now.
// Day boundaries are fixed to UTC so every device sees the same reset.
func NeedsDailyRefresh(u *user.User, now time.Time) bool {
	if u.LastSpinDate == nil {
		return true
	}
	return !sameUTCDay(*u.LastSpinDate, now)
}

// RefreshSpins returns a copy of the user with the daily allotment
// restored when a refresh is due; persistence is the caller's job.
func (p Policy) RefreshSpins(u user.User, now time.Time) user.User {
	if !NeedsDailyRefresh(&u, now) {
		return u
	}

	refreshedAt := now.UTC()
	u.AvailableSpins = p.DailySpinAllotment(u.Tier)
	u.LastSpinDate = &refreshedAt

	return u
}

func CanSpin(u *user.User) bool {
	return u.AvailableSpins > 0
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
