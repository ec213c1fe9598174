// AngelaMos | 2026
// entity.go

package redemption

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
)

var (
	// ErrAlreadyRedeemed: a completed redemption exists for the same
	// (user, deal) pair; a deal can be redeemed once per user.
	ErrAlreadyRedeemed = errors.New("deal already redeemed")

	// ErrInvalidTransition: the redemption is not in the state the
	// requested transition starts from.
	ErrInvalidTransition = errors.New("invalid redemption transition")
)

type Coordinate struct {
	Latitude  float64 `db:"latitude"  json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
}

// Redemption is a user's claim on a deal, valid for a bounded window.
// Lifecycle: pending -> completed (merchant validates) or pending ->
// expired (window lapses or user cancels). Both end states are
// terminal and retained for history; rows are never deleted.
type Redemption struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	DealID           string     `db:"deal_id"`
	MerchantID       string     `db:"merchant_id"`
	LocationID       string     `db:"location_id"`
	Status           string     `db:"status"`
	CreatedAt        time.Time  `db:"created_at"`
	ExpiresAt        time.Time  `db:"expires_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	DeviceID         string     `db:"device_id"`
	Latitude         float64    `db:"latitude"`
	Longitude        float64    `db:"longitude"`
	NotificationSent bool       `db:"notification_sent"`
	CancelledByUser  bool       `db:"cancelled_by_user"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// IsValidAt reports whether the redemption can still be completed.
func (r *Redemption) IsValidAt(now time.Time) bool {
	return r.Status == StatusPending && now.Before(r.ExpiresAt)
}

// RemainingAt returns the time left in the validity window, clamped
// to zero once the window has lapsed.
func (r *Redemption) RemainingAt(now time.Time) time.Duration {
	remaining := r.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (r *Redemption) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusExpired
}
