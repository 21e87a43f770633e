package store

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrNotFound means a referenced id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation is blocked by existing records,
	// e.g. deleting an item that has logged transactions.
	ErrConflict = errors.New("conflict with existing records")
)

// ValidationError reports malformed input. The operation was not applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError reports an OUT request exceeding available stock.
// Available is included so the caller can adjust the request.
type InsufficientStockError struct {
	ItemID    int64
	Requested float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %g, available %g",
		e.ItemID, e.Requested, e.Available)
}
