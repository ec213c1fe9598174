// AngelaMos | 2026
// service_test.go

package reward

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegplug/pegplug-backend/internal/config"
	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/redemption"
	"github.com/pegplug/pegplug-backend/internal/user"
)

// fakeMembers hands out snapshots the way the repository does; spends
// mutate the stored balance, never a snapshot already given out.
type fakeMembers struct {
	tier      string
	balance   int
	spinsUsed int
}

func (m *fakeMembers) Ensure(
	ctx context.Context,
	id, email, displayName string,
) (*user.User, error) {
	return &user.User{
		ID:             id,
		Tier:           m.tier,
		AvailableSpins: m.balance,
	}, nil
}

func (m *fakeMembers) EnsureDailyRefresh(
	ctx context.Context,
	u *user.User,
) (*user.User, error) {
	return u, nil
}

func (m *fakeMembers) UseSpins(
	ctx context.Context,
	userID string,
	count int,
) error {
	if m.balance < count {
		return user.ErrInsufficientSpins
	}
	m.balance -= count
	m.spinsUsed += count
	return nil
}

type fakeCatalog struct {
	deals []merchant.Deal
}

func (c *fakeCatalog) ActiveDealsAt(
	ctx context.Context,
	merchantID, locationID string,
) ([]merchant.Deal, error) {
	return c.deals, nil
}

type fakeLedger struct {
	created []redemption.CreateParams
	err     error
}

func (l *fakeLedger) CreatePending(
	ctx context.Context,
	params redemption.CreateParams,
) (*redemption.Redemption, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.created = append(l.created, params)
	return &redemption.Redemption{
		ID:     "rec-1",
		UserID: params.UserID,
		DealID: params.DealID,
		Status: redemption.StatusPending,
	}, nil
}

func spinParams() SpinParams {
	return SpinParams{
		UserID:     "user-1",
		MerchantID: "m1",
		LocationID: "l1",
		DeviceID:   "device-1",
		Coordinate: redemption.Coordinate{Latitude: 40, Longitude: -75},
	}
}

func TestServiceSpinNoDealsConsumesNothing(t *testing.T) {
	members := &fakeMembers{tier: user.TierBasic, balance: 1}
	svc := NewService(
		members,
		&fakeCatalog{},
		&fakeLedger{},
		NewEngine(NewPolicy(config.RewardConfig{}), rand.NewPCG(1, 1)),
		slog.Default(),
	)

	_, err := svc.Spin(context.Background(), spinParams())
	assert.ErrorIs(t, err, ErrNoDealsAvailable)
	assert.Equal(t, 0, members.spinsUsed)
}

func TestServiceSpinInsufficientBalance(t *testing.T) {
	members := &fakeMembers{tier: user.TierBasic, balance: 0}
	svc := NewService(
		members,
		&fakeCatalog{deals: []merchant.Deal{{ID: "d1", Title: "Deal"}}},
		&fakeLedger{},
		NewEngine(NewPolicy(config.RewardConfig{}), rand.NewPCG(1, 1)),
		slog.Default(),
	)

	_, err := svc.Spin(context.Background(), spinParams())
	assert.ErrorIs(t, err, user.ErrInsufficientSpins)
}

func TestServiceSpinWinStagesRedemption(t *testing.T) {
	ledger := &fakeLedger{}
	members := &fakeMembers{tier: user.TierPremium, balance: 200}
	svc := NewService(
		members,
		&fakeCatalog{deals: []merchant.Deal{{ID: "d1", Title: "Deal"}}},
		ledger,
		NewEngine(NewPolicy(config.RewardConfig{}), rand.NewPCG(3, 3)),
		slog.Default(),
	)

	// the seeded source wins within a couple hundred draws
	for range 200 {
		result, err := svc.Spin(context.Background(), spinParams())
		require.NoError(t, err)

		if !result.Won {
			assert.Nil(t, result.Redemption)
			continue
		}

		require.NotNil(t, result.Deal)
		require.NotNil(t, result.Redemption)
		assert.Equal(t, "d1", result.Redemption.DealID)

		require.Len(t, ledger.created, 1)
		assert.Equal(t, "device-1", ledger.created[0].DeviceID)
		assert.Equal(t, members.balance, result.SpinsRemaining)
		return
	}
	t.Fatal("no winning spin in 200 seeded draws")
}

func TestServiceSpinDecrementsRemaining(t *testing.T) {
	members := &fakeMembers{tier: user.TierBasic, balance: 3}
	svc := NewService(
		members,
		&fakeCatalog{deals: []merchant.Deal{{ID: "d1", Title: "Deal"}}},
		&fakeLedger{},
		NewEngine(NewPolicy(config.RewardConfig{}), rand.NewPCG(9, 9)),
		slog.Default(),
	)

	result, err := svc.Spin(context.Background(), spinParams())
	require.NoError(t, err)
	assert.Equal(t, 2, result.SpinsRemaining)
	assert.Equal(t, 1, members.spinsUsed)
}
