package credit

import (
	"errors"
	"fmt"
)

var (
	// ErrCompanyNotFound is returned when the company doesn't exist
	ErrCompanyNotFound = errors.New("company not found")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidOrderType is returned when a spend is recorded without a feature type
	ErrInvalidOrderType = errors.New("invalid order type")

	// ErrCreditsExpired is returned when a balance exists but is past its expiry
	ErrCreditsExpired = errors.New("credits expired")

	// ErrInsufficientCredits is returned when the company doesn't have enough credits
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrOrderNotFound is returned when a ledger row to backfill doesn't exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrTransactionAborted is returned when the store aborted the transaction
	// (serialization failure, deadlock, constraint race). Nothing was applied.
	ErrTransactionAborted = errors.New("credit transaction aborted")

	ErrInternal = errors.New("internal error")
)

// InsufficientCreditsError carries the amounts for display.
// It matches ErrInsufficientCredits with errors.Is.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}
