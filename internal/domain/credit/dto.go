package credit

import (
	"time"

	"github.com/google/uuid"
)

// AssignCreditsRequest for POST /api/admin/companies/{id}/credits
type AssignCreditsRequest struct {
	Credits    int `json:"credits" validate:"required,min=1,max=1000000"`
	ExpiryDays int `json:"expiry_days,omitempty" validate:"omitempty,min=1,max=3650"`
}

// CreditResponse is the stored record after a grant
type CreditResponse struct {
	CompanyID  string    `json:"company_id"`
	Balance    int       `json:"balance"`
	StartDate  time.Time `json:"start_date"`
	ExpiryDate time.Time `json:"expiry_date"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func CreditResponseFromEntity(c *Credit) *CreditResponse {
	return &CreditResponse{
		CompanyID:  c.CompanyID.String(),
		Balance:    c.Balance,
		StartDate:  c.StartDate,
		ExpiryDate: c.ExpiryDate,
		UpdatedAt:  c.UpdatedAt,
	}
}

// BalanceResponse for GET /api/v1/companies/{id}/credits
type BalanceResponse struct {
	Balance    int        `json:"balance"`
	ExpiryDate *time.Time `json:"expiry_date"`
	StartDate  *time.Time `json:"start_date"`
	IsExpired  bool       `json:"is_expired"`
}

func BalanceResponseFromEntity(b *Balance) *BalanceResponse {
	return &BalanceResponse{
		Balance:    b.Balance,
		ExpiryDate: b.ExpiryDate,
		StartDate:  b.StartDate,
		IsExpired:  b.IsExpired,
	}
}

// OrderResponse is one ledger row
type OrderResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Delta        int       `json:"delta"`
	CreditsSpent int       `json:"credits_spent"`
	TypeID       string    `json:"type_id,omitempty"`
	AdminUserID  *string   `json:"admin_user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func OrderResponseFromEntity(o *Order) *OrderResponse {
	resp := &OrderResponse{
		ID:           o.ID.String(),
		Type:         string(o.Type),
		Delta:        o.Event().Delta(),
		CreditsSpent: o.CreditsSpent,
		TypeID:       o.TypeID,
		CreatedAt:    o.CreatedAt,
	}
	if o.AdminUserID != nil && *o.AdminUserID != uuid.Nil {
		s := o.AdminUserID.String()
		resp.AdminUserID = &s
	}
	return resp
}

// CleanupResponse for POST /api/admin/credits/cleanup
type CleanupResponse struct {
	Expired int64 `json:"expired"`
}
