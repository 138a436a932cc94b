package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/realty/realty-api/internal/middleware"
	"github.com/realty/realty-api/internal/pkg/jwt"
)

// CompanyRoutes returns the router mounted at /api/v1/companies/{id}/posts
func (h *Handler) CompanyRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireRole(jwt.RoleCompanyAdmin, jwt.RoleAdmin))
		r.Use(middleware.RequireCompanyScope("id"))

		r.Post("/sponsored", h.CreateSponsored)
	})

	return r
}

// Routes returns the public post router mounted at /api/v1/posts
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)

	return r
}
