package credit

import (
	"time"

	"github.com/google/uuid"
)

// OrderType discriminates ledger rows. OrderTypeCredit is the only grant type;
// every other value names the feature a spend paid for.
type OrderType string

const (
	OrderTypeCredit      OrderType = "CREDIT"
	OrderTypeCompanyPost OrderType = "COMPANY_POST"
)

// IsGrant reports whether the order adds credits to a balance.
func (t OrderType) IsGrant() bool {
	return t == OrderTypeCredit
}

// Credit is the per-company balance row. Balance may be stale once
// ExpiryDate has passed; use Effective to read it.
type Credit struct {
	CompanyID  uuid.UUID `db:"company_id" json:"company_id"`
	Balance    int       `db:"balance" json:"balance"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiry_date"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the balance is past its expiry at now.
func (c *Credit) IsExpired(now time.Time) bool {
	return c.ExpiryDate.Before(now)
}

// Effective returns the spendable balance at now.
func (c *Credit) Effective(now time.Time) int {
	if c.IsExpired(now) {
		return 0
	}
	return c.Balance
}

// Order is an append-only ledger row. CreditsSpent is always a positive
// magnitude; its direction comes from Type.
type Order struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	CompanyID    uuid.UUID  `db:"company_id" json:"company_id"`
	Type         OrderType  `db:"type" json:"type"`
	CreditsSpent int        `db:"credits_spent" json:"credits_spent"`
	TypeID       string     `db:"type_id" json:"type_id"`
	AdminUserID  *uuid.UUID `db:"admin_user_id" json:"admin_user_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Event decodes the row into its typed ledger event.
func (o *Order) Event() LedgerEvent {
	if o.Type.IsGrant() {
		return Grant{Amount: o.CreditsSpent}
	}
	return Spend{Amount: o.CreditsSpent, Feature: o.Type, TargetID: o.TypeID}
}

// LedgerEvent is either a Grant or a Spend.
type LedgerEvent interface {
	// Delta is the signed change the event applied to the balance.
	Delta() int
	ledgerEvent()
}

// Grant adds credits to a company balance.
type Grant struct {
	Amount int
}

func (g Grant) Delta() int { return g.Amount }
func (Grant) ledgerEvent() {}

// Spend consumes credits for a feature; TargetID is the purchased entity.
type Spend struct {
	Amount   int
	Feature  OrderType
	TargetID string
}

func (s Spend) Delta() int { return -s.Amount }
func (Spend) ledgerEvent() {}

// Balance is the read model returned by GetBalance.
type Balance struct {
	Balance    int        `json:"balance"`
	ExpiryDate *time.Time `json:"expiry_date"`
	StartDate  *time.Time `json:"start_date"`
	IsExpired  bool       `json:"is_expired"`
}

// Sufficiency is the result of CheckSufficient.
type Sufficiency struct {
	Sufficient     bool `json:"sufficient"`
	CurrentBalance int  `json:"current_balance"`
	IsExpired      bool `json:"is_expired"`
}

// DeductRequest describes one paid action.
type DeductRequest struct {
	CompanyID uuid.UUID
	Credits   int
	Type      OrderType
	TypeID    string
	UserID    *uuid.UUID
}

// DeductResult is returned by a successful deduction.
type DeductResult struct {
	Credit           *Credit `json:"updated_credit"`
	Order            *Order  `json:"order"`
	RemainingBalance int     `json:"remaining_balance"`
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}
