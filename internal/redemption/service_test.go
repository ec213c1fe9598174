// AngelaMos | 2026
// service_test.go

package redemption

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegplug/pegplug-backend/internal/core"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeRepo mirrors the Postgres repository's transition semantics in
// memory, including the atomic create-if-absent behavior.
type fakeRepo struct {
	recs map[string]*Redemption
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{recs: make(map[string]*Redemption)}
}

func (r *fakeRepo) CreatePendingAtomic(
	ctx context.Context,
	rec *Redemption,
) (*Redemption, error) {
	for _, existing := range r.recs {
		if existing.UserID != rec.UserID || existing.DealID != rec.DealID {
			continue
		}
		switch existing.Status {
		case StatusCompleted:
			return nil, ErrAlreadyRedeemed
		case StatusPending:
			if rec.CreatedAt.Before(existing.ExpiresAt) {
				cp := *existing
				return &cp, nil
			}
			existing.Status = StatusExpired
		}
	}

	cp := *rec
	r.recs[rec.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeRepo) GetByID(
	ctx context.Context,
	id string,
) (*Redemption, error) {
	rec, ok := r.recs[id]
	if !ok {
		return nil, fmt.Errorf("redemption %s: %w", id, core.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRepo) ListByUser(
	ctx context.Context,
	userID string,
) ([]Redemption, error) {
	var out []Redemption
	for _, rec := range r.recs {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) Complete(
	ctx context.Context,
	id string,
	now time.Time,
) (bool, error) {
	rec, ok := r.recs[id]
	if !ok {
		return false, fmt.Errorf("redemption %s: %w", id, core.ErrNotFound)
	}
	if rec.Status != StatusPending || !now.Before(rec.ExpiresAt) {
		return false, nil
	}
	rec.Status = StatusCompleted
	completedAt := now
	rec.CompletedAt = &completedAt
	return true, nil
}

func (r *fakeRepo) MarkExpired(
	ctx context.Context,
	id string,
	cancelledByUser bool,
) (bool, error) {
	rec, ok := r.recs[id]
	if !ok {
		return false, fmt.Errorf("redemption %s: %w", id, core.ErrNotFound)
	}
	if rec.Status != StatusPending {
		return false, nil
	}
	rec.Status = StatusExpired
	rec.CancelledByUser = cancelledByUser
	return true, nil
}

func (r *fakeRepo) SetNotificationSent(ctx context.Context, id string) error {
	rec, ok := r.recs[id]
	if !ok {
		return fmt.Errorf("redemption %s: %w", id, core.ErrNotFound)
	}
	rec.NotificationSent = true
	return nil
}

type recordingScheduler struct {
	calls []string
}

func (s *recordingScheduler) ScheduleExpiryReminder(
	ctx context.Context,
	rec *Redemption,
) (time.Time, bool) {
	s.calls = append(s.calls, rec.ID)
	return rec.ExpiresAt.Add(-10 * time.Minute), true
}

func newTestService(
	clock core.Clock,
) (*Service, *fakeRepo, *recordingScheduler) {
	repo := newFakeRepo()
	scheduler := &recordingScheduler{}
	svc := NewService(repo, scheduler, clock, 0, slog.Default())
	return svc, repo, scheduler
}

func testParams() CreateParams {
	return CreateParams{
		UserID:     "user-1",
		DealID:     "deal-1",
		MerchantID: "merchant-1",
		LocationID: "location-1",
		DeviceID:   "device-1",
		Coordinate: Coordinate{Latitude: 40.0, Longitude: -75.0},
	}
}

func TestCreatePending(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: t0}
	svc, _, scheduler := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, t0, rec.CreatedAt)
	assert.Equal(t, t0.Add(DefaultValidity), rec.ExpiresAt)
	assert.True(t, rec.NotificationSent)
	assert.Equal(t, []string{rec.ID}, scheduler.calls)
}

func TestCreatePendingIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, scheduler := newTestService(clock)

	first, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)

	second, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	// no second reminder for a reused row
	assert.Len(t, scheduler.calls, 1)
}

func TestCreatePendingAfterCompletionFails(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, rec.ID)
	require.NoError(t, err)

	_, err = svc.CreatePending(ctx, testParams())
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestCreatePendingReplacesStaleRow(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clock)

	first, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	clock.Advance(DefaultValidity + time.Minute)

	second, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, StatusPending, second.Status)

	stale, err := svc.GetByID(ctx, first.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stale.Status)
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: t0}
	svc, _, _ := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	// valid up to but not past the window
	clock.Advance(119 * time.Minute)
	got, err := svc.GetByID(ctx, rec.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, got.IsValidAt(clock.Now()))

	// past the window completion is rejected and the row heals
	clock.Advance(2 * time.Minute)
	_, err = svc.Complete(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err = svc.GetByID(ctx, rec.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestCompleteHappyPath(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)

	completed, err := svc.Complete(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, clock.Now(), *completed.CompletedAt)

	// completed is terminal
	_, err = svc.Complete(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = svc.Expire(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExpireTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	require.NoError(t, svc.Expire(ctx, rec.ID))
	assert.NoError(t, svc.Expire(ctx, rec.ID))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, repo, _ := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	t.Run("wrong user", func(t *testing.T) {
		err := svc.Cancel(ctx, rec.ID, "someone-else")
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("owner", func(t *testing.T) {
		require.NoError(t, svc.Cancel(ctx, rec.ID, "user-1"))

		got := repo.recs[rec.ID]
		assert.Equal(t, StatusExpired, got.Status)
		assert.True(t, got.CancelledByUser)
	})
}

func TestListActiveByUserFiltersLapsed(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clock)

	first, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	clock.Advance(DefaultValidity + time.Minute)

	later := testParams()
	later.DealID = "deal-2"
	second, err := svc.CreatePending(ctx, later)
	require.NoError(t, err)

	active, err := svc.ListActiveByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	// the lapsed row was healed by the read
	all, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	for _, rec := range all {
		if rec.ID == first.ID {
			assert.Equal(t, StatusExpired, rec.Status)
		}
	}
}

func TestGetByIDOwnership(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clock)

	rec, err := svc.CreatePending(ctx, testParams())
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, rec.ID, "someone-else")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestRemainingAt(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	rec := Redemption{
		Status:    StatusPending,
		ExpiresAt: t0.Add(10 * time.Minute),
	}

	assert.Equal(t, 10*time.Minute, rec.RemainingAt(t0))
	assert.Equal(t, time.Duration(0), rec.RemainingAt(t0.Add(time.Hour)))
}
