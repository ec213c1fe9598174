// AngelaMos | 2026
// policy_test.go

package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pegplug/pegplug-backend/internal/config"
	"github.com/pegplug/pegplug-backend/internal/user"
)

func TestPolicyDefaults(t *testing.T) {
	p := NewPolicy(config.RewardConfig{})

	assert.Equal(t, 1, p.DailySpinAllotment(user.TierBasic))
	assert.Equal(t, 3, p.DailySpinAllotment(user.TierPremium))
	assert.InDelta(t, 0.30, p.WinProbability(user.TierBasic), 1e-9)
	assert.InDelta(t, 0.40, p.WinProbability(user.TierPremium), 1e-9)
}

func TestPolicyUnknownTierFallsBackToBasic(t *testing.T) {
	p := NewPolicy(config.RewardConfig{})

	assert.Equal(t, p.DailySpinAllotment(user.TierBasic), p.DailySpinAllotment("gold"))
	assert.InDelta(t, p.WinProbability(user.TierBasic), p.WinProbability(""), 1e-9)
}

func TestNeedsDailyRefresh(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("never spun", func(t *testing.T) {
		u := &user.User{Tier: user.TierBasic}
		assert.True(t, NeedsDailyRefresh(u, now))
	})

	t.Run("spun yesterday", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		u := &user.User{Tier: user.TierBasic, LastSpinDate: &yesterday}
		assert.True(t, NeedsDailyRefresh(u, now))
	})

	t.Run("spun earlier today", func(t *testing.T) {
		earlier := now.Add(-3 * time.Hour)
		u := &user.User{Tier: user.TierBasic, LastSpinDate: &earlier}
		assert.False(t, NeedsDailyRefresh(u, now))
	})

	t.Run("UTC midnight boundary", func(t *testing.T) {
		beforeMidnight := time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)
		justAfter := time.Date(2026, 3, 14, 0, 1, 0, 0, time.UTC)
		u := &user.User{Tier: user.TierBasic, LastSpinDate: &beforeMidnight}
		assert.True(t, NeedsDailyRefresh(u, justAfter))
	})
}

func TestRefreshSpinsTopsUpToAllotment(t *testing.T) {
	p := NewPolicy(config.RewardConfig{})
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	u := user.User{Tier: user.TierPremium, AvailableSpins: 0}
	refreshed := p.RefreshSpins(u, now)

	assert.Equal(t, 3, refreshed.AvailableSpins)
	assert.NotNil(t, refreshed.LastSpinDate)
	assert.Equal(t, now, *refreshed.LastSpinDate)
	// the input copy is untouched
	assert.Equal(t, 0, u.AvailableSpins)
}

func TestRefreshSpinsNoopWithinSameDay(t *testing.T) {
	p := NewPolicy(config.RewardConfig{})
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-2 * time.Hour)

	u := user.User{
		Tier:           user.TierBasic,
		AvailableSpins: 0,
		LastSpinDate:   &earlier,
	}
	refreshed := p.RefreshSpins(u, now)

	assert.Equal(t, 0, refreshed.AvailableSpins)
	assert.Equal(t, earlier, *refreshed.LastSpinDate)
}
