// AngelaMos | 2026
// entity.go

package merchant

import (
	"time"
)

type Merchant struct {
	ID                  string    `db:"id"`
	Name                string    `db:"name"`
	LogoURL             string    `db:"logo_url"`
	Active              bool      `db:"active"`
	GeofenceRadiusMiles float64   `db:"geofence_radius_miles"`
	APIKeyHash          *string   `db:"api_key_hash"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// Location is a physical venue (a "peg") owned by exactly one merchant.
type Location struct {
	ID         string    `db:"id"`
	MerchantID string    `db:"merchant_id"`
	Name       string    `db:"name"`
	Address    string    `db:"address"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	CreatedAt  time.Time `db:"created_at"`
}

type Deal struct {
	ID          string     `db:"id"`
	MerchantID  string     `db:"merchant_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Terms       string     `db:"terms"`
	ImageURL    string     `db:"image_url"`
	StartDate   *time.Time `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	Active      bool       `db:"active"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	LocationIDs []string `db:"-"`
}

// IsActiveAt reports whether the deal is live: flagged active and now
// inside its optional validity window (an absent bound is open-ended).
func (d *Deal) IsActiveAt(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}
