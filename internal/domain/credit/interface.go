package credit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event subjects published after a ledger write commits.
const (
	SubjectGranted = "credits.granted"
	SubjectSpent   = "credits.spent"
	SubjectExpired = "credits.expired"
)

// Service interface defines the credit ledger operations
type Service interface {
	// AssignCredits grants credits to a company and overwrites its expiry.
	// expiryDays <= 0 uses the configured default.
	AssignCredits(ctx context.Context, companyID uuid.UUID, credits, expiryDays int, adminUserID *uuid.UUID) (*Credit, error)

	// GetBalance returns the effective balance; expired balances read as 0
	GetBalance(ctx context.Context, companyID uuid.UUID) (*Balance, error)

	// CheckSufficient reports whether a paid action of the given price can proceed
	CheckSufficient(ctx context.Context, companyID uuid.UUID, required int) (*Sufficiency, error)

	// DeductAndRecordOrder atomically decrements the balance and writes the order
	DeductAndRecordOrder(ctx context.Context, req DeductRequest) (*DeductResult, error)

	// DeductTx deducts within a caller-owned transaction. The caller commits.
	DeductTx(ctx context.Context, tx Tx, req DeductRequest) (*DeductResult, error)

	// PublishSpend logs and emits a deduction once its transaction committed
	PublishSpend(ctx context.Context, result *DeductResult)

	// CleanupExpiredCredits zeroes stored balances past their expiry
	CleanupExpiredCredits(ctx context.Context) (int64, error)

	// ListOrders returns the company's ledger, newest first
	ListOrders(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]Order, error)
}

// Store is the persistence the ledger runs on.
type Store interface {
	// GetCredit returns nil, nil when the company has no credit row.
	GetCredit(ctx context.Context, companyID uuid.UUID) (*Credit, error)
	ExpireBalances(ctx context.Context, now time.Time) (int64, error)
	ListOrders(ctx context.Context, companyID uuid.UUID, pagination Pagination) ([]Order, error)

	// InTx runs fn in one transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of ledger writes available inside a transaction.
type Tx interface {
	GetCredit(ctx context.Context, companyID uuid.UUID) (*Credit, error)

	// UpsertGrant creates the row or adds credits to it, overwriting expiry.
	UpsertGrant(ctx context.Context, companyID uuid.UUID, credits int, now, expiry time.Time) (*Credit, error)

	// DeductIfSufficient decrements only when the row is unexpired at now and
	// holds at least credits. It returns nil, nil when no row qualified.
	DeductIfSufficient(ctx context.Context, companyID uuid.UUID, credits int, now time.Time) (*Credit, error)

	InsertOrder(ctx context.Context, order *Order) error

	// SetOrderTypeID backfills the purchased entity of a spend.
	SetOrderTypeID(ctx context.Context, orderID uuid.UUID, typeID string) error
}

// CompanyLookup resolves whether a tenant exists.
type CompanyLookup interface {
	Exists(ctx context.Context, companyID uuid.UUID) (bool, error)
}

// Publisher emits ledger events. Failures never undo a committed write.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
