package taxhttp

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the tax routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/provinces", h.listProvinces)
	r.Post("/calculate/{jurisdiction}", h.calculate)
}
