// AngelaMos | 2026
// handler.go

package merchant

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pegplug/pegplug-backend/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/merchants", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListMerchants)
		r.Get("/{merchantID}/deals", h.ListDeals)
	})
}

func (h *Handler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	merchants, err := h.service.ListMerchants(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]MerchantResponse, 0, len(merchants))
	for _, m := range merchants {
		responses = append(responses, ToMerchantResponse(m))
	}

	core.OK(w, responses)
}

func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")

	deals, err := h.service.ListDeals(r.Context(), merchantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "merchant")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToDealResponseList(deals))
}
