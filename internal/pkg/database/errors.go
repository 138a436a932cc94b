package database

import (
	"errors"

	"github.com/lib/pq"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
)

// SQLState returns the PostgreSQL error code carried by err, or "".
func SQLState(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ""
	}
	return string(pqErr.Code)
}

// IsTransactionConflict reports whether the store aborted a transaction in a
// way that a retry of the whole unit of work may resolve.
func IsTransactionConflict(err error) bool {
	switch SQLState(err) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateUniqueViolation:
		return true
	default:
		return false
	}
}

// IsForeignKeyViolation reports whether err is a missing-reference failure.
func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == sqlStateForeignKeyViolation
}
