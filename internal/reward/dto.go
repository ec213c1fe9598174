// AngelaMos | 2026
// dto.go

package reward

import (
	"github.com/pegplug/pegplug-backend/internal/redemption"
)

// SpinRequest is the body of a spin attempt. The caller must be
// physically at a merchant location; the coordinate is recorded on
// any resulting redemption.
type SpinRequest struct {
	MerchantID string  `json:"merchant_id" validate:"required,uuid"`
	LocationID string  `json:"location_id" validate:"required,uuid"`
	DeviceID   string  `json:"device_id,omitempty"`
	Latitude   float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude  float64 `json:"longitude" validate:"min=-180,max=180"`
}

type SpinDeal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type SpinResponse struct {
	Won            bool                           `json:"won"`
	Deal           *SpinDeal                      `json:"deal,omitempty"`
	Redemption     *redemption.RedemptionResponse `json:"redemption,omitempty"`
	SpinsRemaining int                            `json:"spins_remaining"`
}
