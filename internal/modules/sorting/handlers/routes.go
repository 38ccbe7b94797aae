package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio sort routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sorts", func(r chi.Router) {
		// Individual pipeline stages
		r.Post("/breakpoints", h.HandleBreakpoints)
		r.Post("/assign", h.HandleAssign)
		r.Post("/averages", h.HandleAverages)

		// Full pipeline over inline columns or a stored sample
		r.Post("/run", h.HandleRun)
	})
}
