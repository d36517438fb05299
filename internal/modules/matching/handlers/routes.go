package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all matching routes under /api/v1
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/match", func(r chi.Router) {
			r.Post("/goals/{goalID}", h.HandleMatchGoal)
			r.Post("/deals/{dealID}", h.HandleMatchDeal)
		})

		r.Get("/goals/{goalID}/matches", h.HandleGoalMatches)
		r.Get("/deals/{dealID}/matches", h.HandleDealMatches)
	})
}
