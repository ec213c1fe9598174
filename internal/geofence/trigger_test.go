// AngelaMos | 2026
// trigger_test.go

package geofence

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/redemption"
)

type fakeCatalog struct {
	merchants map[string]*merchant.Merchant
	deals     []merchant.Deal
	dealsErr  error
}

func (c *fakeCatalog) GetMerchant(
	ctx context.Context,
	id string,
) (*merchant.Merchant, error) {
	if m, ok := c.merchants[id]; ok {
		return m, nil
	}
	return nil, errors.New("not found")
}

func (c *fakeCatalog) ActiveDealsAt(
	ctx context.Context,
	merchantID, locationID string,
) ([]merchant.Deal, error) {
	return c.deals, c.dealsErr
}

type fakeLedger struct {
	created []redemption.CreateParams
	errFor  map[string]error
}

func (l *fakeLedger) CreatePending(
	ctx context.Context,
	params redemption.CreateParams,
) (*redemption.Redemption, error) {
	if err, ok := l.errFor[params.DealID]; ok {
		return nil, err
	}
	l.created = append(l.created, params)
	return &redemption.Redemption{
		ID:     "rec-" + params.DealID,
		UserID: params.UserID,
		DealID: params.DealID,
		Status: redemption.StatusPending,
	}, nil
}

type fakeNotifier struct {
	userIDs   []string
	merchants []string
	titles    [][]string
}

func (n *fakeNotifier) SendEntryNotification(
	ctx context.Context,
	userID, merchantName string,
	dealTitles []string,
) {
	n.userIDs = append(n.userIDs, userID)
	n.merchants = append(n.merchants, merchantName)
	n.titles = append(n.titles, dealTitles)
}

func newTestTrigger(
	catalog *fakeCatalog,
	ledger *fakeLedger,
	notifier *fakeNotifier,
) *Trigger {
	return NewTrigger(
		catalog, ledger, notifier,
		nil, time.Hour, slog.Default(),
	)
}

func TestOnLocationEnteredStagesAllDeals(t *testing.T) {
	catalog := &fakeCatalog{
		merchants: map[string]*merchant.Merchant{
			"m1": {ID: "m1", Name: "Corner Cafe"},
		},
		deals: []merchant.Deal{
			{ID: "d1", Title: "Free Coffee"},
			{ID: "d2", Title: "Half Off Bagel"},
		},
	}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	trigger := newTestTrigger(catalog, ledger, notifier)

	region := RegionKey{MerchantID: "m1", LocationID: "l1"}
	coord := redemption.Coordinate{Latitude: 40.0, Longitude: -75.0}

	trigger.OnLocationEntered(
		context.Background(), "user-1", "device-1", region, coord,
	)

	require.Len(t, ledger.created, 2)
	for _, params := range ledger.created {
		assert.Equal(t, "user-1", params.UserID)
		assert.Equal(t, "m1", params.MerchantID)
		assert.Equal(t, "l1", params.LocationID)
		assert.Equal(t, "device-1", params.DeviceID)
		assert.Equal(t, coord, params.Coordinate)
	}

	require.Len(t, notifier.titles, 1)
	assert.Equal(t, "Corner Cafe", notifier.merchants[0])
	assert.Equal(t, []string{"Free Coffee", "Half Off Bagel"}, notifier.titles[0])
}

func TestOnLocationEnteredNoDealsNoNotification(t *testing.T) {
	catalog := &fakeCatalog{}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	trigger := newTestTrigger(catalog, ledger, notifier)

	trigger.OnLocationEntered(
		context.Background(), "user-1", "device-1",
		RegionKey{MerchantID: "m1", LocationID: "l1"},
		redemption.Coordinate{},
	)

	assert.Empty(t, ledger.created)
	assert.Empty(t, notifier.titles)
}

func TestOnLocationEnteredToleratesAlreadyRedeemed(t *testing.T) {
	catalog := &fakeCatalog{
		merchants: map[string]*merchant.Merchant{
			"m1": {ID: "m1", Name: "Corner Cafe"},
		},
		deals: []merchant.Deal{
			{ID: "d1", Title: "Free Coffee"},
			{ID: "d2", Title: "Half Off Bagel"},
		},
	}
	ledger := &fakeLedger{
		errFor: map[string]error{"d1": redemption.ErrAlreadyRedeemed},
	}
	notifier := &fakeNotifier{}
	trigger := newTestTrigger(catalog, ledger, notifier)

	trigger.OnLocationEntered(
		context.Background(), "user-1", "device-1",
		RegionKey{MerchantID: "m1", LocationID: "l1"},
		redemption.Coordinate{},
	)

	// the redeemed deal is skipped for staging but still announced
	require.Len(t, ledger.created, 1)
	assert.Equal(t, "d2", ledger.created[0].DealID)
	require.Len(t, notifier.titles, 1)
	assert.Equal(t, []string{"Free Coffee", "Half Off Bagel"}, notifier.titles[0])
}

func TestOnLocationEnteredLookupFailure(t *testing.T) {
	catalog := &fakeCatalog{dealsErr: errors.New("db down")}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	trigger := newTestTrigger(catalog, ledger, notifier)

	trigger.OnLocationEntered(
		context.Background(), "user-1", "device-1",
		RegionKey{MerchantID: "m1", LocationID: "l1"},
		redemption.Coordinate{},
	)

	assert.Empty(t, ledger.created)
	assert.Empty(t, notifier.titles)
}

func TestUnknownMerchantFallsBackToID(t *testing.T) {
	catalog := &fakeCatalog{
		deals: []merchant.Deal{{ID: "d1", Title: "Deal"}},
	}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	trigger := newTestTrigger(catalog, ledger, notifier)

	trigger.OnLocationEntered(
		context.Background(), "user-1", "device-1",
		RegionKey{MerchantID: "m1", LocationID: "l1"},
		redemption.Coordinate{},
	)

	require.Len(t, notifier.merchants, 1)
	assert.Equal(t, "m1", notifier.merchants[0])
}
