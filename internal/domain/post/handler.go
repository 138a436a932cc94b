package post

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/realty/realty-api/internal/domain/credit"
	"github.com/realty/realty-api/internal/middleware"
	"github.com/realty/realty-api/internal/pkg/errorhandler"
	"github.com/realty/realty-api/internal/pkg/response"
	"github.com/realty/realty-api/internal/pkg/validator"
)

// Handler handles post HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates post handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateSponsored handles POST /api/v1/companies/{id}/posts/sponsored
func (h *Handler) CreateSponsored(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid company ID")
		return
	}

	var req CreateSponsoredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	in := CreateSponsoredInput{
		CompanyID:           companyID,
		Title:               req.Title,
		Body:                req.Body,
		SponsorDurationDays: req.SponsorDurationDays,
	}
	if userID := middleware.GetUserID(r.Context()); userID != uuid.Nil {
		in.UserID = &userID
	}

	res, err := h.service.CreateSponsored(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, SponsoredResponse{
		Post:             PostResponseFromEntity(res.Post, time.Now()),
		CreditsDeducted:  res.CreditsDeducted,
		RemainingBalance: res.RemainingBalance,
		ExpiryDate:       res.ExpiryDate,
	})
}

// GetByID handles GET /api/v1/posts/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid post ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, PostResponseFromEntity(p, time.Now()))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, ErrPostNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Post not found", err)
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidDuration):
		errorhandler.HandleError(ctx, w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), err)
	case errors.Is(err, ErrFeatureNotPriced):
		errorhandler.HandleError(ctx, w, http.StatusServiceUnavailable, "FEATURE_UNAVAILABLE", err.Error(), err)
	default:
		credit.WriteError(w, r, err)
	}
}
