// AngelaMos | 2026
// service.go

package redemption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pegplug/pegplug-backend/internal/core"
)

// DefaultValidity is the canonical redemption window. An older
// client constant documented 60 minutes; the executable value has
// always been 120 and that is the one honored here.
const DefaultValidity = 120 * time.Minute

// ReminderScheduler stages an expiry reminder for a pending
// redemption. Returns the scheduled instant and false when the lead
// window has already passed and the reminder was skipped.
type ReminderScheduler interface {
	ScheduleExpiryReminder(
		ctx context.Context,
		rec *Redemption,
	) (time.Time, bool)
}

type CreateParams struct {
	UserID     string
	DealID     string
	MerchantID string
	LocationID string
	DeviceID   string
	Coordinate Coordinate
}

// Service is the redemption ledger: it owns the pending -> completed /
// expired lifecycle and the at-most-one invariants per (user, deal).
type Service struct {
	repo      Repository
	scheduler ReminderScheduler
	clock     core.Clock
	validity  time.Duration
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	scheduler ReminderScheduler,
	clock core.Clock,
	validity time.Duration,
	logger *slog.Logger,
) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}

	return &Service{
		repo:      repo,
		scheduler: scheduler,
		clock:     clock,
		validity:  validity,
		logger:    logger,
	}
}

// CreatePending stages a redemption for the (user, deal) pair.
// Idempotent: a still-valid pending row is returned as-is; a
// completed row fails with ErrAlreadyRedeemed. The check-and-insert
// runs atomically in the repository, so concurrent creators across
// devices converge on a single row.
func (s *Service) CreatePending(
	ctx context.Context,
	params CreateParams,
) (*Redemption, error) {
	now := s.clock.Now()

	rec := &Redemption{
		ID:         uuid.New().String(),
		UserID:     params.UserID,
		DealID:     params.DealID,
		MerchantID: params.MerchantID,
		LocationID: params.LocationID,
		Status:     StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.validity),
		DeviceID:   params.DeviceID,
		Latitude:   params.Coordinate.Latitude,
		Longitude:  params.Coordinate.Longitude,
	}

	created, err := s.repo.CreatePendingAtomic(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrAlreadyRedeemed) {
			return nil, fmt.Errorf(
				"create redemption user=%s deal=%s: %w",
				params.UserID, params.DealID, ErrAlreadyRedeemed,
			)
		}
		return nil, fmt.Errorf(
			"create redemption user=%s deal=%s: %w",
			params.UserID, params.DealID, err,
		)
	}

	// Reminder only for a freshly created row; a reused pending row
	// already had its reminder staged.
	if created.ID == rec.ID && !created.NotificationSent {
		s.scheduleReminder(ctx, created)
	}

	return created, nil
}

func (s *Service) scheduleReminder(ctx context.Context, rec *Redemption) {
	scheduledAt, ok := s.scheduler.ScheduleExpiryReminder(ctx, rec)
	if !ok {
		return
	}

	if err := s.repo.SetNotificationSent(ctx, rec.ID); err != nil {
		s.logger.Warn("failed to record reminder",
			"redemption_id", rec.ID,
			"error", err,
		)
		return
	}

	rec.NotificationSent = true

	s.logger.Debug("expiry reminder scheduled",
		"redemption_id", rec.ID,
		"scheduled_at", scheduledAt,
	)
}

// Complete transitions a pending, still-valid redemption to completed.
func (s *Service) Complete(
	ctx context.Context,
	id string,
) (*Redemption, error) {
	now := s.clock.Now()

	completed, err := s.repo.Complete(ctx, id, now)
	if err != nil {
		return nil, err
	}

	if !completed {
		rec, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		// A lapsed pending row is healed before reporting the failure.
		s.expireStale(ctx, rec, now)
		return nil, fmt.Errorf(
			"complete redemption %s from status %s: %w",
			id, rec.Status, ErrInvalidTransition,
		)
	}

	return s.repo.GetByID(ctx, id)
}

// Expire transitions pending -> expired. Calling it on an already
// expired redemption is a no-op, not an error.
func (s *Service) Expire(ctx context.Context, id string) error {
	return s.expire(ctx, id, false)
}

// Cancel is the user-initiated expiry; same transition, flagged for
// audit so support can tell a lapse from a cancellation.
func (s *Service) Cancel(
	ctx context.Context,
	id, userID string,
) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if rec.UserID != userID {
		return fmt.Errorf("cancel redemption: %w", core.ErrForbidden)
	}

	return s.expire(ctx, id, true)
}

func (s *Service) expire(
	ctx context.Context,
	id string,
	cancelledByUser bool,
) error {
	expired, err := s.repo.MarkExpired(ctx, id, cancelledByUser)
	if err != nil {
		return err
	}

	if expired {
		return nil
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if rec.Status == StatusExpired {
		return nil
	}

	return fmt.Errorf(
		"expire redemption %s from status %s: %w",
		id, rec.Status, ErrInvalidTransition,
	)
}

// GetByID returns a redemption, applying lazy expiry: a pending row
// past its window is healed to expired before being returned.
func (s *Service) GetByID(
	ctx context.Context,
	id, userID string,
) (*Redemption, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.UserID != userID {
		return nil, fmt.Errorf("get redemption: %w", core.ErrForbidden)
	}

	s.expireStale(ctx, rec, s.clock.Now())

	return rec, nil
}

// ListByUser returns the user's redemptions newest first, healing any
// stale pending rows on the way out. There is no background sweeper;
// reads are the expiry mechanism.
func (s *Service) ListByUser(
	ctx context.Context,
	userID string,
) ([]Redemption, error) {
	recs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for i := range recs {
		s.expireStale(ctx, &recs[i], now)
	}

	return recs, nil
}

// ListActiveByUser returns only redemptions still inside their window.
func (s *Service) ListActiveByUser(
	ctx context.Context,
	userID string,
) ([]Redemption, error) {
	recs, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	active := recs[:0]
	for _, rec := range recs {
		if rec.IsValidAt(now) {
			active = append(active, rec)
		}
	}

	return active, nil
}

func (s *Service) expireStale(
	ctx context.Context,
	rec *Redemption,
	now time.Time,
) {
	if rec.Status != StatusPending || now.Before(rec.ExpiresAt) {
		return
	}

	if _, err := s.repo.MarkExpired(ctx, rec.ID, false); err != nil {
		s.logger.Warn("lazy expiry failed",
			"redemption_id", rec.ID,
			"error", err,
		)
		return
	}

	rec.Status = StatusExpired
}

func (s *Service) Validity() time.Duration {
	return s.validity
}
