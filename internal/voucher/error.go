package voucher

import "errors"

// Reason is a typed, user-facing validation failure. Callers surface these
// verbatim; they are never wrapped into opaque errors.
type Reason string

const (
	ReasonNotFound      Reason = "voucher not found"
	ReasonInactive      Reason = "voucher is not active"
	ReasonNotStarted    Reason = "voucher is not yet valid"
	ReasonExpired       Reason = "voucher has expired"
	ReasonExhausted     Reason = "voucher usage limit reached"
	ReasonMinPurchase   Reason = "minimum purchase not met"
	ReasonNotApplicable Reason = "voucher does not apply to any item in this order"
)

var (
	// -- System failures (retryable by a fresh request, never shown raw) --
	ErrLockFailed = errors.New("failed to lock voucher row")

	// ErrRedeemExhausted means the guarded increment found no headroom:
	// a concurrent transaction won the last slot.
	ErrRedeemExhausted = errors.New("voucher already fully redeemed")
)
