// AngelaMos | 2026
// service.go

package reward

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/redemption"
	"github.com/pegplug/pegplug-backend/internal/user"
)

// Members is the slice of the membership service the spin flow needs.
type Members interface {
	Ensure(ctx context.Context, id, email, displayName string) (*user.User, error)
	EnsureDailyRefresh(ctx context.Context, u *user.User) (*user.User, error)
	UseSpins(ctx context.Context, userID string, count int) error
}

// Catalog provides the live deals a spin can award.
type Catalog interface {
	ActiveDealsAt(
		ctx context.Context,
		merchantID, locationID string,
	) ([]merchant.Deal, error)
}

// Ledger stages pending redemptions for winning spins.
type Ledger interface {
	CreatePending(
		ctx context.Context,
		params redemption.CreateParams,
	) (*redemption.Redemption, error)
}

// SpinParams carries everything one spin attempt needs.
type SpinParams struct {
	UserID      string
	Email       string
	DisplayName string
	MerchantID  string
	LocationID  string
	DeviceID    string
	Coordinate  redemption.Coordinate
}

// SpinResult is the full outcome of one spin, including the staged
// redemption when the reel landed on a win.
type SpinResult struct {
	Won            bool
	Deal           *merchant.Deal
	Redemption     *redemption.Redemption
	SpinsRemaining int
}

// Service orchestrates the spin flow: membership refresh, deal
// lookup, spin accounting, the draw itself, and ledger staging on a
// win.
type Service struct {
	members Members
	catalog Catalog
	ledger  Ledger
	engine  *Engine
	logger  *slog.Logger
}

func NewService(
	members Members,
	catalog Catalog,
	ledger Ledger,
	engine *Engine,
	logger *slog.Logger,
) *Service {
	return &Service{
		members: members,
		catalog: catalog,
		ledger:  ledger,
		engine:  engine,
		logger:  logger,
	}
}

// Spin runs one paid spin attempt at a merchant location. The deal
// lookup happens before the spin is charged: no live deals means no
// spin is consumed.
func (s *Service) Spin(
	ctx context.Context,
	params SpinParams,
) (*SpinResult, error) {
	u, err := s.members.Ensure(
		ctx,
		params.UserID,
		params.Email,
		params.DisplayName,
	)
	if err != nil {
		return nil, err
	}

	u, err = s.members.EnsureDailyRefresh(ctx, u)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.ActiveDealsAt(
		ctx,
		params.MerchantID,
		params.LocationID,
	)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoDealsAvailable
	}

	if err := s.members.UseSpins(ctx, u.ID, 1); err != nil {
		return nil, err
	}
	remaining := u.AvailableSpins - 1
	if remaining < 0 {
		remaining = 0
	}

	outcome, err := s.engine.Spin(u, candidates)
	if err != nil {
		return nil, err
	}

	result := &SpinResult{
		Won:            outcome.Won,
		Deal:           outcome.Deal,
		SpinsRemaining: remaining,
	}

	if !outcome.Won {
		return result, nil
	}

	rec, err := s.ledger.CreatePending(ctx, redemption.CreateParams{
		UserID:     u.ID,
		DealID:     outcome.Deal.ID,
		MerchantID: params.MerchantID,
		LocationID: params.LocationID,
		DeviceID:   params.DeviceID,
		Coordinate: params.Coordinate,
	})
	if err != nil {
		// An existing claim on this deal still counts as a win for
		// the spin; surface the live record instead of failing.
		if errors.Is(err, redemption.ErrAlreadyRedeemed) {
			s.logger.Info("winning spin hit an already redeemed deal",
				"user_id", u.ID,
				"deal_id", outcome.Deal.ID,
			)
			result.Won = false
			result.Deal = nil
			return result, nil
		}
		return nil, err
	}

	result.Redemption = rec
	return result, nil
}
