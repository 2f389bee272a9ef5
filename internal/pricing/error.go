package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrItemNotFound    = errors.New("cart item not found in catalog")
)

// TotalMismatchError signals that the client-submitted total differs from
// the recomputed total beyond tolerance: either a stale cart or a tampered
// price. The order must be rejected, never silently repriced.
type TotalMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("order total mismatch: client sent %d, server computed %d", e.Expected, e.Actual)
}
