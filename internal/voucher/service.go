package voucher

import (
	"context"
	"database/sql"
	"time"

	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	// Validate checks the code against the order context under a row lock.
	// A failed check comes back as Result{Valid: false, Reason: ...}; the
	// returned error is reserved for system failures (lock timeout, query
	// failure) which abort the surrounding transaction.
	Validate(ctx context.Context, tx *sql.Tx, input ValidateInput) (*Result, error)

	// CalculateDiscount computes the discount amount for an order total.
	// FIXED_AMOUNT never exceeds the total.
	CalculateDiscount(t Type, value int64, orderTotal int64) int64

	// Redeem increments used_count inside the caller's transaction. Only
	// call when the finalization that depends on it is about to commit;
	// redemption and stock decrement are one atomic unit.
	Redeem(ctx context.Context, tx *sql.Tx, voucherID string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Validate(ctx context.Context, tx *sql.Tx, input ValidateInput) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Validate"),
		zap.String("code", input.Code),
	)

	v, err := s.repo.GetByCodeForUpdate(ctx, tx, input.Code)
	if err != nil {
		log.Error("failed to lock voucher", zap.Error(err))
		return nil, err
	}

	// Fail fast, first failure wins.
	if v == nil {
		return &Result{Reason: ReasonNotFound}, nil
	}

	now := s.now()

	if !v.IsActive {
		return &Result{Reason: ReasonInactive}, nil
	}
	if v.StartDate.After(now) {
		return &Result{Reason: ReasonNotStarted}, nil
	}
	if v.Expires != nil && v.Expires.Before(now) {
		return &Result{Reason: ReasonExpired}, nil
	}
	if v.TotalLimit != nil && v.UsedCount >= *v.TotalLimit {
		return &Result{Reason: ReasonExhausted}, nil
	}

	// Per-user limit: LimitPerUser is carried on the row but there is no
	// usage-tracking table to enforce it against, so it is deliberately
	// not checked here.

	if v.MinPurchase != nil && input.OrderTotal < *v.MinPurchase {
		return &Result{Reason: ReasonMinPurchase}, nil
	}

	if !s.applies(v, input.ProductIDs, input.VariantIDs) {
		return &Result{Reason: ReasonNotApplicable}, nil
	}

	discount := s.CalculateDiscount(v.Type, v.Value, input.OrderTotal)

	log.Info("voucher validated",
		zap.String("voucher_id", v.ID),
		zap.Int64("discount", discount),
	)

	return &Result{
		Valid:    true,
		Voucher:  v,
		Discount: discount,
	}, nil
}

// applies checks the allow-list for SPECIFIC_PRODUCTS / SPECIFIC_VARIANTS
// vouchers: at least one order line has to match.
func (s *service) applies(v *Voucher, productIDs, variantIDs []string) bool {
	switch v.ApplicationType {
	case ApplySpecificProducts:
		return anyMatch(v.ProductIDs, productIDs)
	case ApplySpecificVariants:
		return anyMatch(v.VariantIDs, variantIDs)
	default:
		return true
	}
}

func anyMatch(allowed, present []string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	for _, id := range present {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (s *service) CalculateDiscount(t Type, value int64, orderTotal int64) int64 {
	switch t {
	case TypePercentage:
		return (orderTotal*value + 50) / 100
	case TypeFixedAmount:
		if value > orderTotal {
			return orderTotal
		}
		return value
	default:
		return 0
	}
}

func (s *service) Redeem(ctx context.Context, tx *sql.Tx, voucherID string) error {
	if err := s.repo.IncrementUsage(ctx, tx, voucherID); err != nil {
		logger.FromCtx(ctx).Error("failed to redeem voucher",
			zap.String("voucher_id", voucherID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
