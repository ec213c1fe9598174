// AngelaMos | 2026
// handler.go

package reward

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pegplug/pegplug-backend/internal/core"
	"github.com/pegplug/pegplug-backend/internal/middleware"
	"github.com/pegplug/pegplug-backend/internal/redemption"
	"github.com/pegplug/pegplug-backend/internal/user"
)

type Handler struct {
	service   *Service
	clock     core.Clock
	validator *validator.Validate
}

func NewHandler(service *Service, clock core.Clock) *Handler {
	return &Handler{
		service:   service,
		clock:     clock,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/spins", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Spin)
	})
}

func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	var req SpinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	userID := middleware.GetUserID(r.Context())

	result, err := h.service.Spin(r.Context(), SpinParams{
		UserID:     userID,
		MerchantID: req.MerchantID,
		LocationID: req.LocationID,
		DeviceID:   req.DeviceID,
		Coordinate: redemption.Coordinate{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoDealsAvailable):
			core.JSONError(w, &core.AppError{
				Code:    "NO_DEALS_AVAILABLE",
				Message: "no active deals at this location",
				Status:  http.StatusConflict,
			})
		case errors.Is(err, user.ErrInsufficientSpins):
			core.JSONError(w, &core.AppError{
				Code:    "INSUFFICIENT_SPINS",
				Message: "no spins remaining today",
				Status:  http.StatusConflict,
			})
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "merchant or location not found")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	resp := SpinResponse{
		Won:            result.Won,
		SpinsRemaining: result.SpinsRemaining,
	}

	if result.Deal != nil {
		resp.Deal = &SpinDeal{
			ID:          result.Deal.ID,
			Title:       result.Deal.Title,
			Description: result.Deal.Description,
		}
	}

	if result.Redemption != nil {
		rec := redemption.ToRedemptionResponse(
			result.Redemption,
			h.clock.Now(),
		)
		resp.Redemption = &rec
	}

	core.OK(w, resp)
}
