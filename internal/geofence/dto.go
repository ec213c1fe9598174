// AngelaMos | 2026
// dto.go

package geofence

// EventRequest is the webhook body posted by the device's location
// layer when a monitored region boundary is crossed. Either the
// legacy RegionKey string or the explicit id pair identifies the
// region; when both are present the explicit ids win.
type EventRequest struct {
	Event      string  `json:"event" validate:"required,oneof=entry exit"`
	RegionKey  string  `json:"region_key,omitempty"`
	MerchantID string  `json:"merchant_id,omitempty"`
	LocationID string  `json:"location_id,omitempty"`
	DeviceID   string  `json:"device_id,omitempty"`
	Latitude   float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude  float64 `json:"longitude" validate:"min=-180,max=180"`
}

// EventResponse acknowledges processing without blocking the device.
type EventResponse struct {
	Accepted bool   `json:"accepted"`
	Region   string `json:"region"`
}

// InsideResponse lists the regions the caller is currently inside.
type InsideResponse struct {
	Regions []string `json:"regions"`
}
