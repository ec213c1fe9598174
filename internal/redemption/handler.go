// AngelaMos | 2026
// handler.go

package redemption

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pegplug/pegplug-backend/internal/core"
	"github.com/pegplug/pegplug-backend/internal/merchant"
	"github.com/pegplug/pegplug-backend/internal/middleware"
)

// Catalog is the slice of the merchant service the handler needs.
type Catalog interface {
	GetDeal(ctx context.Context, id string) (*merchant.Deal, error)
	VerifyAPIKey(
		ctx context.Context,
		merchantID, apiKey string,
	) (*merchant.Merchant, error)
}

type Handler struct {
	service   *Service
	catalog   Catalog
	clock     core.Clock
	validator *validator.Validate
}

func NewHandler(service *Service, catalog Catalog, clock core.Clock) *Handler {
	return &Handler{
		service:   service,
		catalog:   catalog,
		clock:     clock,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/redemptions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Claim)
		r.Get("/{redemptionID}", h.Get)
		r.Post("/{redemptionID}/cancel", h.Cancel)
	})
}

// RegisterMerchantRoutes exposes the merchant-side completion
// endpoint, authenticated by API key rather than a user token.
func (h *Handler) RegisterMerchantRoutes(r chi.Router) {
	r.Post("/merchant/redemptions/{redemptionID}/complete", h.Complete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var (
		recs []Redemption
		err  error
	)

	if r.URL.Query().Get("active") == "true" {
		recs, err = h.service.ListActiveByUser(r.Context(), userID)
	} else {
		recs, err = h.service.ListByUser(r.Context(), userID)
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRedemptionResponseList(recs, h.clock.Now()))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	redemptionID := chi.URLParam(r, "redemptionID")

	rec, err := h.service.GetByID(r.Context(), redemptionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "redemption")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "not your redemption")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ToRedemptionResponse(rec, h.clock.Now()))
}

// Claim stages a pending redemption for a deal the user has won or
// walked into. Idempotent per (user, deal) while a valid pending
// redemption exists.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	deal, err := h.catalog.GetDeal(r.Context(), req.DealID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "deal")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	now := h.clock.Now()
	if !deal.IsActiveAt(now) {
		core.BadRequest(w, "deal is not currently active")
		return
	}

	if !slices.Contains(deal.LocationIDs, req.LocationID) {
		core.BadRequest(w, "deal is not offered at this location")
		return
	}

	rec, err := h.service.CreatePending(r.Context(), CreateParams{
		UserID:     userID,
		DealID:     deal.ID,
		MerchantID: deal.MerchantID,
		LocationID: req.LocationID,
		DeviceID:   req.DeviceID,
		Coordinate: Coordinate{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRedeemed) {
			core.Conflict(w, "you have already redeemed this deal")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToRedemptionResponse(rec, now))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	redemptionID := chi.URLParam(r, "redemptionID")

	err := h.service.Cancel(r.Context(), redemptionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "redemption")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "not your redemption")
		case errors.Is(err, ErrInvalidTransition):
			core.Conflict(w, "redemption can no longer be cancelled")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

// Complete is called by the merchant's point-of-sale after validating
// the deal in person.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	redemptionID := chi.URLParam(r, "redemptionID")

	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		core.Unauthorized(w, "missing api key")
		return
	}

	rec, err := h.service.repo.GetByID(r.Context(), redemptionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "redemption")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if _, err := h.catalog.VerifyAPIKey(
		r.Context(),
		rec.MerchantID,
		apiKey,
	); err != nil {
		core.Unauthorized(w, "invalid api key")
		return
	}

	completed, err := h.service.Complete(r.Context(), redemptionID)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			core.Conflict(w, "redemption is not pending or has expired")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRedemptionResponse(completed, h.clock.Now()))
}
