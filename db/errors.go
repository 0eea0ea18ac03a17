package db

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Common errors
var (
	ErrRepositoryNotFound = fmt.Errorf("repository not found")
	ErrReportNotFound     = fmt.Errorf("report not found")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrDuplicateEntry     = fmt.Errorf("duplicate entry")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrDatabaseConnection = fmt.Errorf("database connection error")
	ErrTransactionFailed  = fmt.Errorf("transaction failed")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// checkID validates a primary key before it reaches a UUID column. An empty id is
// invalid input; any other non-UUID cannot match a row, so it reports notFound.
func checkID(kind, id string, notFound error) error {
	if id == "" {
		return fmt.Errorf("%w: %s id cannot be empty", ErrInvalidInput, kind)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
