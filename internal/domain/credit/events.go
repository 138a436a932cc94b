package credit

import (
	"time"

	"github.com/google/uuid"
)

// GrantedEvent is published on SubjectGranted.
type GrantedEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	CompanyID   uuid.UUID  `json:"company_id"`
	Credits     int        `json:"credits"`
	Balance     int        `json:"balance"`
	ExpiryDate  time.Time  `json:"expiry_date"`
	AdminUserID *uuid.UUID `json:"admin_user_id,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// SpentEvent is published on SubjectSpent.
type SpentEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	CompanyID        uuid.UUID `json:"company_id"`
	Type             OrderType `json:"type"`
	TypeID           string    `json:"type_id"`
	Credits          int       `json:"credits"`
	RemainingBalance int       `json:"remaining_balance"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ExpiredEvent is published on SubjectExpired after a sweep zeroed balances.
type ExpiredEvent struct {
	Count   int64     `json:"count"`
	SweptAt time.Time `json:"swept_at"`
}
