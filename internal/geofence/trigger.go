// AngelaMos | 2026
// trigger.go

package geofence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/redemption"
)

// Catalog is the slice of the merchant service the trigger consumes.
type Catalog interface {
	GetMerchant(ctx context.Context, id string) (*merchant.Merchant, error)
	ActiveDealsAt(
		ctx context.Context,
		merchantID, locationID string,
	) ([]merchant.Deal, error)
}

// Ledger stages pending redemptions for qualifying deals.
type Ledger interface {
	CreatePending(
		ctx context.Context,
		params redemption.CreateParams,
	) (*redemption.Redemption, error)
}

// Notifier fires the single per-entry notification.
type Notifier interface {
	SendEntryNotification(
		ctx context.Context,
		userID, merchantName string,
		dealTitles []string,
	)
}

// Trigger reacts to geofence entry events from the device's location
// layer: it finds the live deals at the entered location and stages a
// pending redemption for each. All failures are logged, never
// surfaced — a missed trigger costs a reward opportunity, not
// correctness.
type Trigger struct {
	catalog     Catalog
	ledger      Ledger
	notifier    Notifier
	presence    *redis.Client
	presenceTTL time.Duration
	logger      *slog.Logger
}

func NewTrigger(
	catalog Catalog,
	ledger Ledger,
	notifier Notifier,
	presence *redis.Client,
	presenceTTL time.Duration,
	logger *slog.Logger,
) *Trigger {
	if presenceTTL <= 0 {
		presenceTTL = 24 * time.Hour
	}

	return &Trigger{
		catalog:     catalog,
		ledger:      ledger,
		notifier:    notifier,
		presence:    presence,
		presenceTTL: presenceTTL,
		logger:      logger,
	}
}

func presenceKey(userID string) string {
	return "geofence:inside:" + userID
}

func (t *Trigger) OnLocationEntered(
	ctx context.Context,
	userID, deviceID string,
	region RegionKey,
	coord redemption.Coordinate,
) {
	t.recordPresence(ctx, userID, region)

	deals, err := t.catalog.ActiveDealsAt(
		ctx,
		region.MerchantID,
		region.LocationID,
	)
	if err != nil {
		t.logger.Error("geofence deal lookup failed",
			"user_id", userID,
			"region", region.String(),
			"error", err,
		)
		return
	}

	if len(deals) == 0 {
		return
	}

	titles := make([]string, 0, len(deals))
	for _, deal := range deals {
		titles = append(titles, deal.Title)

		_, err := t.ledger.CreatePending(ctx, redemption.CreateParams{
			UserID:     userID,
			DealID:     deal.ID,
			MerchantID: region.MerchantID,
			LocationID: region.LocationID,
			DeviceID:   deviceID,
			Coordinate: coord,
		})
		if err != nil {
			// Already-redeemed deals still count toward the entry
			// summary; any other failure is per-deal, not fatal.
			if !errors.Is(err, redemption.ErrAlreadyRedeemed) {
				t.logger.Error("geofence redemption staging failed",
					"user_id", userID,
					"deal_id", deal.ID,
					"error", err,
				)
			}
			continue
		}
	}

	merchantName := region.MerchantID
	if m, err := t.catalog.GetMerchant(ctx, region.MerchantID); err == nil {
		merchantName = m.Name
	}

	t.notifier.SendEntryNotification(ctx, userID, merchantName, titles)
}

// OnLocationExited clears presence. Redemptions are untouched:
// walking out does not forfeit a pending deal.
func (t *Trigger) OnLocationExited(
	ctx context.Context,
	userID string,
	region RegionKey,
) {
	if t.presence == nil {
		return
	}

	if err := t.presence.SRem(
		ctx,
		presenceKey(userID),
		region.String(),
	).Err(); err != nil {
		t.logger.Warn("presence clear failed",
			"user_id", userID,
			"region", region.String(),
			"error", err,
		)
	}
}

// CurrentlyInside lists the regions the user's device is presently in.
func (t *Trigger) CurrentlyInside(
	ctx context.Context,
	userID string,
) ([]RegionKey, error) {
	if t.presence == nil {
		return nil, nil
	}

	members, err := t.presence.SMembers(ctx, presenceKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	regions := make([]RegionKey, 0, len(members))
	for _, member := range members {
		region, parseErr := ParseRegionKey(member)
		if parseErr != nil {
			continue
		}
		regions = append(regions, region)
	}

	return regions, nil
}

func (t *Trigger) recordPresence(
	ctx context.Context,
	userID string,
	region RegionKey,
) {
	if t.presence == nil {
		return
	}

	key := presenceKey(userID)

	pipe := t.presence.Pipeline()
	pipe.SAdd(ctx, key, region.String())
	pipe.Expire(ctx, key, t.presenceTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("presence record failed",
			"user_id", userID,
			"region", region.String(),
			"error", err,
		)
	}
}
