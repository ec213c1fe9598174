// AngelaMos | 2026
// dto.go

package redemption

import (
	"time"
)

type ClaimRequest struct {
	DealID     string  `json:"deal_id"     validate:"required,uuid"`
	LocationID string  `json:"location_id" validate:"required,uuid"`
	DeviceID   string  `json:"device_id"   validate:"omitempty,max=128"`
	Latitude   float64 `json:"latitude"    validate:"omitempty,latitude"`
	Longitude  float64 `json:"longitude"   validate:"omitempty,longitude"`
}

type RedemptionResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	DealID           string     `json:"deal_id"`
	MerchantID       string     `json:"merchant_id"`
	LocationID       string     `json:"location_id"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
}

func ToRedemptionResponse(rec *Redemption, now time.Time) RedemptionResponse {
	return RedemptionResponse{
		ID:               rec.ID,
		UserID:           rec.UserID,
		DealID:           rec.DealID,
		MerchantID:       rec.MerchantID,
		LocationID:       rec.LocationID,
		Status:           rec.Status,
		CreatedAt:        rec.CreatedAt,
		ExpiresAt:        rec.ExpiresAt,
		CompletedAt:      rec.CompletedAt,
		RemainingSeconds: int64(rec.RemainingAt(now).Seconds()),
	}
}

func ToRedemptionResponseList(
	recs []Redemption,
	now time.Time,
) []RedemptionResponse {
	responses := make([]RedemptionResponse, 0, len(recs))
	for i := range recs {
		responses = append(responses, ToRedemptionResponse(&recs[i], now))
	}
	return responses
}
