// AngelaMos | 2026
// service.go

package merchant

import (
	"context"
	"fmt"

	"github.com/pegplug/pegplug-backend/internal/core"
)

type Service struct {
	repo  Repository
	clock core.Clock
}

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

func (s *Service) GetMerchant(
	ctx context.Context,
	id string,
) (*Merchant, error) {
	return s.repo.GetMerchant(ctx, id)
}

func (s *Service) GetDeal(ctx context.Context, id string) (*Deal, error) {
	return s.repo.GetDeal(ctx, id)
}

// ListMerchants returns active merchants with their locations for the
// discovery map.
func (s *Service) ListMerchants(
	ctx context.Context,
) ([]MerchantWithLocations, error) {
	merchants, err := s.repo.ListActiveMerchants(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]MerchantWithLocations, 0, len(merchants))
	for _, m := range merchants {
		locations, err := s.repo.ListLocations(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, MerchantWithLocations{
			Merchant:  m,
			Locations: locations,
		})
	}

	return result, nil
}

func (s *Service) ListDeals(
	ctx context.Context,
	merchantID string,
) ([]Deal, error) {
	if _, err := s.repo.GetMerchant(ctx, merchantID); err != nil {
		return nil, err
	}
	return s.repo.ListDealsByMerchant(ctx, merchantID)
}

// ActiveDealsAt returns the candidate pool for spins and geofence
// triggers: live deals scoped to one merchant location.
func (s *Service) ActiveDealsAt(
	ctx context.Context,
	merchantID, locationID string,
) ([]Deal, error) {
	return s.repo.ListActiveDealsAt(
		ctx,
		merchantID,
		locationID,
		s.clock.Now(),
	)
}

func (s *Service) GetLocation(
	ctx context.Context,
	id string,
) (*Location, error) {
	return s.repo.GetLocation(ctx, id)
}

// VerifyAPIKey authenticates a merchant-side caller. Verification is
// timing-safe even when the merchant has no key provisioned.
func (s *Service) VerifyAPIKey(
	ctx context.Context,
	merchantID, apiKey string,
) (*Merchant, error) {
	m, err := s.repo.GetMerchant(ctx, merchantID)
	if err != nil {
		//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
		_, _ = core.VerifySecretTimingSafe(apiKey, nil)
		return nil, err
	}

	valid, err := core.VerifySecretTimingSafe(apiKey, m.APIKeyHash)
	if err != nil {
		return nil, fmt.Errorf("verify api key: %w", err)
	}

	if !valid {
		return nil, fmt.Errorf("verify api key: %w", core.ErrUnauthorized)
	}

	return m, nil
}

type MerchantWithLocations struct {
	Merchant  Merchant
	Locations []Location
}
