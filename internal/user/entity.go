// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                   string     `db:"id"`
	Email                string     `db:"email"`
	DisplayName          string     `db:"display_name"`
	Role                 string     `db:"role"`
	Tier                 string     `db:"tier"`
	AvailableSpins       int        `db:"available_spins"`
	LastSpinDate         *time.Time `db:"last_spin_date"`
	NotificationsEnabled bool       `db:"notifications_enabled"`
	DeviceID             string     `db:"device_id"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
	DeletedAt            *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsPremium() bool {
	return u.Tier == TierPremium
}

func (u *User) CanSpin() bool {
	return u.AvailableSpins > 0
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TierBasic   = "basic"
	TierPremium = "premium"
)
