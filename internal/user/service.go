// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pegplug/pegplug-backend/internal/core"
)

var ErrInsufficientSpins = errors.New("insufficient spins")

// AllotmentFunc maps a membership tier to its daily spin allotment.
// Supplied by the reward policy at wiring time so this package stays
// free of a reward dependency.
type AllotmentFunc func(tier string) int

type Service struct {
	repo      Repository
	allotment AllotmentFunc
	clock     core.Clock
}

func NewService(
	repo Repository,
	allotment AllotmentFunc,
	clock core.Clock,
) *Service {
	return &Service{
		repo:      repo,
		allotment: allotment,
		clock:     clock,
	}
}

// Ensure provisions the user row on first authentication. The identity
// provider owns credentials; this service only keeps membership state
// keyed by the token subject.
func (s *Service) Ensure(
	ctx context.Context,
	id, email, displayName string,
) (*User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	newUser := &User{
		ID:                   id,
		Email:                strings.ToLower(email),
		DisplayName:          displayName,
		Role:                 RoleUser,
		Tier:                 TierBasic,
		AvailableSpins:       s.allotment(TierBasic),
		NotificationsEnabled: true,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return s.repo.GetByID(ctx, id)
		}
		return nil, err
	}

	return newUser, nil
}

// EnsureDailyRefresh tops the spin balance back up to the tier
// allotment the first time the user is touched on a new UTC day.
func (s *Service) EnsureDailyRefresh(
	ctx context.Context,
	u *User,
) (*User, error) {
	now := s.clock.Now()

	refreshed, err := s.repo.RefreshDailySpins(
		ctx,
		u.ID,
		s.allotment(u.Tier),
		now,
	)
	if err != nil {
		return nil, err
	}

	if !refreshed {
		return u, nil
	}

	return s.repo.GetByID(ctx, u.ID)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	u, err := s.Ensure(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}

	return s.EnsureDailyRefresh(ctx, u)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.NotificationsEnabled != nil {
		u.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.DeviceID != nil {
		u.DeviceID = *req.DeviceID
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// UpgradeToPremium switches the tier and grants the full premium
// allotment immediately, replacing whatever basic balance remained.
// The top-up is deliberate: it is the upgrade bonus, not additive.
func (s *Service) UpgradeToPremium(
	ctx context.Context,
	userID string,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.IsPremium() {
		return u, nil
	}

	premiumSpins := s.allotment(TierPremium)
	if err := s.repo.SetTierAndSpins(
		ctx,
		userID,
		TierPremium,
		premiumSpins,
	); err != nil {
		return nil, err
	}

	u.Tier = TierPremium
	u.AvailableSpins = premiumSpins

	return u, nil
}

// UseSpins consumes count spins. Balance and last-spin date move
// together in one conditional write; a short balance mutates nothing.
func (s *Service) UseSpins(
	ctx context.Context,
	userID string,
	count int,
) error {
	if count <= 0 {
		return fmt.Errorf("use spins: count %d: %w", count, core.ErrInvalidInput)
	}

	spent, err := s.repo.SpendSpins(ctx, userID, count, s.clock.Now())
	if err != nil {
		return err
	}

	if !spent {
		if _, getErr := s.repo.GetByID(ctx, userID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("use spins: %w", ErrInsufficientSpins)
	}

	return nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Role = role

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) UpdateUserTier(
	ctx context.Context,
	id, tier string,
) (*User, error) {
	switch tier {
	case TierPremium:
		return s.UpgradeToPremium(ctx, id)
	case TierBasic:
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SetTierAndSpins(
			ctx,
			id,
			TierBasic,
			min(u.AvailableSpins, s.allotment(TierBasic)),
		); err != nil {
			return nil, err
		}
		return s.repo.GetByID(ctx, id)
	default:
		return nil, fmt.Errorf(
			"update tier: invalid tier %q: %w",
			tier,
			core.ErrInvalidInput,
		)
	}
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}
