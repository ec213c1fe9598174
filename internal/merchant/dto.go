// AngelaMos | 2026
// dto.go

package merchant

import (
	"time"
)

type MerchantResponse struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	LogoURL             string             `json:"logo_url,omitempty"`
	GeofenceRadiusMiles float64            `json:"geofence_radius_miles"`
	Locations           []LocationResponse `json:"locations,omitempty"`
}

type LocationResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DealResponse struct {
	ID          string     `json:"id"`
	MerchantID  string     `json:"merchant_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Terms       string     `json:"terms,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Active      bool       `json:"active"`
	LocationIDs []string   `json:"location_ids,omitempty"`
}

func ToMerchantResponse(m MerchantWithLocations) MerchantResponse {
	locations := make([]LocationResponse, 0, len(m.Locations))
	for _, loc := range m.Locations {
		locations = append(locations, ToLocationResponse(&loc))
	}

	return MerchantResponse{
		ID:                  m.Merchant.ID,
		Name:                m.Merchant.Name,
		LogoURL:             m.Merchant.LogoURL,
		GeofenceRadiusMiles: m.Merchant.GeofenceRadiusMiles,
		Locations:           locations,
	}
}

func ToLocationResponse(loc *Location) LocationResponse {
	return LocationResponse{
		ID:        loc.ID,
		Name:      loc.Name,
		Address:   loc.Address,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
}

func ToDealResponse(d *Deal) DealResponse {
	return DealResponse{
		ID:          d.ID,
		MerchantID:  d.MerchantID,
		Title:       d.Title,
		Description: d.Description,
		Terms:       d.Terms,
		ImageURL:    d.ImageURL,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Active:      d.Active,
		LocationIDs: d.LocationIDs,
	}
}

func ToDealResponseList(deals []Deal) []DealResponse {
	responses := make([]DealResponse, 0, len(deals))
	for _, d := range deals {
		responses = append(responses, ToDealResponse(&d))
	}
	return responses
}
