package credit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/realty/realty-api/internal/middleware"
	"github.com/realty/realty-api/internal/pkg/errorhandler"
	"github.com/realty/realty-api/internal/pkg/response"
	"github.com/realty/realty-api/internal/pkg/validator"
)

// Handler handles credit HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates credit handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Assign handles POST /api/admin/companies/{id}/credits
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid company ID")
		return
	}

	var req AssignCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	var adminID *uuid.UUID
	if id := middleware.GetUserID(r.Context()); id != uuid.Nil {
		adminID = &id
	}

	c, err := h.service.AssignCredits(r.Context(), companyID, req.Credits, req.ExpiryDays, adminID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.Created(w, CreditResponseFromEntity(c))
}

// Cleanup handles POST /api/admin/credits/cleanup
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CleanupExpiredCredits(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.OK(w, CleanupResponse{Expired: count})
}

// GetBalance handles GET /api/v1/companies/{id}/credits
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid company ID")
		return
	}

	b, err := h.service.GetBalance(r.Context(), companyID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.OK(w, BalanceResponseFromEntity(b))
}

// CheckSufficient handles GET /api/v1/companies/{id}/credits/check?required=N
func (h *Handler) CheckSufficient(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid company ID")
		return
	}

	required, err := strconv.Atoi(r.URL.Query().Get("required"))
	if err != nil {
		response.BadRequest(w, "required must be an integer")
		return
	}

	s, err := h.service.CheckSufficient(r.Context(), companyID, required)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.OK(w, s)
}

// ListOrders handles GET /api/v1/companies/{id}/credits/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid company ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := h.service.ListOrders(r.Context(), companyID, limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	items := make([]*OrderResponse, len(orders))
	for i := range orders {
		items[i] = OrderResponseFromEntity(&orders[i])
	}

	response.WithMeta(w, items, response.Meta{Limit: limit, Offset: offset, Count: len(items)})
}

// WriteError maps ledger errors to HTTP responses. Other domains that spend
// credits reuse it so payment failures look the same everywhere.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var short *InsufficientCreditsError
	switch {
	case errors.As(err, &short):
		errorhandler.HandleErrorWithDetails(ctx, w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS",
			"Not enough credits", map[string]interface{}{
				"required":  short.Required,
				"available": short.Available,
			}, err)
	case errors.Is(err, ErrInsufficientCredits):
		errorhandler.HandleError(ctx, w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "Not enough credits", err)
	case errors.Is(err, ErrCreditsExpired):
		errorhandler.HandleError(ctx, w, http.StatusPaymentRequired, "CREDITS_EXPIRED", "Credits have expired", err)
	case errors.Is(err, ErrCompanyNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Company not found", err)
	case errors.Is(err, ErrOrderNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Order not found", err)
	case errors.Is(err, ErrInvalidAmount):
		errorhandler.HandleError(ctx, w, http.StatusUnprocessableEntity, "INVALID_AMOUNT", err.Error(), err)
	case errors.Is(err, ErrInvalidOrderType):
		errorhandler.HandleError(ctx, w, http.StatusUnprocessableEntity, "INVALID_ORDER_TYPE", err.Error(), err)
	case errors.Is(err, ErrTransactionAborted):
		errorhandler.HandleError(ctx, w, http.StatusConflict, "TRANSACTION_ABORTED", "Please retry the request", err)
	default:
		errorhandler.HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}
