package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedOperation is returned for entry points that exist only
	// to be rejected, such as transaction update and delete.
	ErrUnsupportedOperation = errors.New("operation not supported")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientStockError aborts a checkout whose requested quantity exceeds
// the stock observed under the row lock. It carries everything the caller
// needs to report the failing line.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock not enough for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}
