package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrUnauthorized      = errors.New("user not authenticated")
	ErrCampaignExhausted = errors.New("campaign stock sold out")
)

// StockConflict describes one line that cannot be fulfilled.
type StockConflict struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Requested int     `json:"requested"`
	Available int     `json:"available"`
}

// InsufficientStockError carries every conflicting line, not just the first,
// so the client can report all problems in one round trip.
type InsufficientStockError struct {
	Conflicts []StockConflict
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d item(s)", len(e.Conflicts))
}

// VoucherRejectedError wraps a typed voucher validation reason so the
// finalizer can abort the transaction while keeping the user-facing message.
type VoucherRejectedError struct {
	Reason string
}

func (e *VoucherRejectedError) Error() string {
	return e.Reason
}
