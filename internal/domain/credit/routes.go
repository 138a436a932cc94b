package credit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/realty/realty-api/internal/middleware"
)

// Routes returns the company-scoped credit router, mounted at
// /api/v1/companies/{id}/credits
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Use(middleware.RequireCompanyScope("id"))

	r.Get("/", h.GetBalance)
	r.Get("/check", h.CheckSufficient)
	r.Get("/orders", h.ListOrders)

	return r
}

// AdminRoutes returns the admin credit router, mounted at /api/admin
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())

	r.Post("/companies/{id}/credits", h.Assign)
	r.Post("/credits/cleanup", h.Cleanup)

	return r
}
