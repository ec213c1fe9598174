// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegplug/pegplug-backend/internal/core"
)

func testAllotment(tier string) int {
	if tier == TierPremium {
		return 3
	}
	return 1
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeRepo mirrors the conditional-update semantics of the Postgres
// repository in memory.
type fakeRepo struct {
	users map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) Create(ctx context.Context, u *User) error {
	if _, ok := r.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, core.ErrDuplicateKey)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
}

func (r *fakeRepo) Update(ctx context.Context, u *User) error {
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, core.ErrNotFound)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRepo) RefreshDailySpins(
	ctx context.Context,
	id string,
	allotment int,
	now time.Time,
) (bool, error) {
	u, ok := r.users[id]
	if !ok {
		return false, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}

	if u.LastSpinDate != nil {
		ly, lm, ld := u.LastSpinDate.UTC().Date()
		ny, nm, nd := now.UTC().Date()
		if ly == ny && lm == nm && ld == nd {
			return false, nil
		}
	}

	stamp := now.UTC()
	u.AvailableSpins = allotment
	u.LastSpinDate = &stamp
	return true, nil
}

func (r *fakeRepo) SpendSpins(
	ctx context.Context,
	id string,
	count int,
	now time.Time,
) (bool, error) {
	u, ok := r.users[id]
	if !ok {
		return false, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	if u.AvailableSpins < count {
		return false, nil
	}
	stamp := now.UTC()
	u.AvailableSpins -= count
	u.LastSpinDate = &stamp
	return true, nil
}

func (r *fakeRepo) SetTierAndSpins(
	ctx context.Context,
	id, tier string,
	spins int,
) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	u.Tier = tier
	u.AvailableSpins = spins
	return nil
}

func (r *fakeRepo) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func newTestService(clock core.Clock) (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, testAllotment, clock), repo
}

func TestEnsureProvisionsOnFirstAuth(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(clock)

	u, err := svc.Ensure(ctx, "user-1", "Niko@Example.com", "Niko")
	require.NoError(t, err)

	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "niko@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, TierBasic, u.Tier)
	assert.Equal(t, 1, u.AvailableSpins)
	assert.True(t, u.NotificationsEnabled)

	// second call is a plain read
	again, err := svc.Ensure(ctx, "user-1", "other@example.com", "Other")
	require.NoError(t, err)
	assert.Equal(t, "niko@example.com", again.Email)
}

func TestEnsureDailyRefresh(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, repo := newTestService(clock)

	u, err := svc.Ensure(ctx, "user-1", "", "")
	require.NoError(t, err)

	// burn the spin today
	require.NoError(t, svc.UseSpins(ctx, u.ID, 1))

	t.Run("same day no refresh", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		got, err := svc.EnsureDailyRefresh(ctx, mustGet(t, repo, "user-1"))
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableSpins)
	})

	t.Run("next UTC day refreshes", func(t *testing.T) {
		clock.now = time.Date(2026, 3, 15, 0, 5, 0, 0, time.UTC)
		got, err := svc.EnsureDailyRefresh(ctx, mustGet(t, repo, "user-1"))
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableSpins)
	})
}

func mustGet(t *testing.T, repo *fakeRepo, id string) *User {
	t.Helper()
	u, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestUseSpins(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, repo := newTestService(clock)

	u, err := svc.Ensure(ctx, "user-1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.UseSpins(ctx, u.ID, 1))

	got := mustGet(t, repo, u.ID)
	assert.Equal(t, 0, got.AvailableSpins)
	require.NotNil(t, got.LastSpinDate)
	assert.Equal(t, clock.Now(), *got.LastSpinDate)

	t.Run("insufficient balance", func(t *testing.T) {
		err := svc.UseSpins(ctx, u.ID, 1)
		assert.ErrorIs(t, err, ErrInsufficientSpins)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.UseSpins(ctx, "nobody", 1)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("non-positive count", func(t *testing.T) {
		err := svc.UseSpins(ctx, u.ID, 0)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})
}

func TestUpgradeToPremium(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(clock)

	u, err := svc.Ensure(ctx, "user-1", "", "")
	require.NoError(t, err)

	// spend the basic spin, then upgrade: the balance becomes the
	// full premium allotment, not a top-up over the remainder
	require.NoError(t, svc.UseSpins(ctx, u.ID, 1))

	upgraded, err := svc.UpgradeToPremium(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, TierPremium, upgraded.Tier)
	assert.Equal(t, 3, upgraded.AvailableSpins)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, svc.UseSpins(ctx, u.ID, 2))

		again, err := svc.UpgradeToPremium(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, TierPremium, again.Tier)
		// a repeat upgrade does not re-grant spins
		assert.Equal(t, 1, again.AvailableSpins)
	})
}

func TestUpdateUserTierDowngradeCapsSpins(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(clock)

	u, err := svc.Ensure(ctx, "user-1", "", "")
	require.NoError(t, err)

	_, err = svc.UpgradeToPremium(ctx, u.ID)
	require.NoError(t, err)

	downgraded, err := svc.UpdateUserTier(ctx, u.ID, TierBasic)
	require.NoError(t, err)
	assert.Equal(t, TierBasic, downgraded.Tier)
	assert.Equal(t, 1, downgraded.AvailableSpins)
}

func TestUpdateUserRoleRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(clock)

	_, err := svc.Ensure(ctx, "user-1", "", "")
	require.NoError(t, err)

	_, err = svc.UpdateUserRole(ctx, "user-1", "superuser")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
