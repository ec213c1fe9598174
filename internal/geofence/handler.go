// AngelaMos | 2026
// handler.go

package geofence

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pegplug/pegplug-backend/internal/core"
	"github.com/pegplug/pegplug-backend/internal/middleware"
	"github.com/pegplug/pegplug-backend/internal/redemption"
)

type Handler struct {
	trigger   *Trigger
	validator *validator.Validate
}

func NewHandler(trigger *Trigger) *Handler {
	return &Handler{
		trigger:   trigger,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/geofence", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/events", h.Event)
		r.Get("/inside", h.Inside)
	})
}

func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	region, err := resolveRegion(req)
	if err != nil {
		core.BadRequest(w, "unrecognized region identifier")
		return
	}

	userID := middleware.GetUserID(r.Context())

	switch req.Event {
	case "entry":
		h.trigger.OnLocationEntered(
			r.Context(),
			userID,
			req.DeviceID,
			region,
			redemption.Coordinate{
				Latitude:  req.Latitude,
				Longitude: req.Longitude,
			},
		)
	case "exit":
		h.trigger.OnLocationExited(r.Context(), userID, region)
	}

	core.Accepted(w, EventResponse{
		Accepted: true,
		Region:   region.String(),
	})
}

func (h *Handler) Inside(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	regions, err := h.trigger.CurrentlyInside(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	keys := make([]string, 0, len(regions))
	for _, region := range regions {
		keys = append(keys, region.String())
	}

	core.OK(w, InsideResponse{Regions: keys})
}

func resolveRegion(req EventRequest) (RegionKey, error) {
	if req.MerchantID != "" && req.LocationID != "" {
		return NewRegionKey(req.MerchantID, req.LocationID)
	}
	return ParseRegionKey(req.RegionKey)
}
