package pricing

import (
	"context"
	"time"

	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

// Tax is a flat 1% of the items subtotal, rounded half up.
const taxRatePercent = 1

// DefaultTolerance is the allowed absolute gap between the client-submitted
// total and the recomputed total, in integer currency units.
const DefaultTolerance = 1

type Service interface {
	// ResolvePrice returns the authoritative unit quote for one cart line.
	ResolvePrice(ctx context.Context, productID string, variantID *string) (*Quote, error)

	// PriceCart re-prices the whole cart server-side.
	PriceCart(ctx context.Context, lines []CartLine) (*CartQuote, error)

	// ValidateTotal re-prices and compares the client's claimed total.
	// Returns the recomputed quote on success and *TotalMismatchError when
	// the gap exceeds tolerance.
	ValidateTotal(ctx context.Context, lines []CartLine, expectedTotal int64) (*CartQuote, error)
}

type service struct {
	catalog   catalog.Repository
	tolerance int64
	now       func() time.Time
}

func NewService(catalogRepo catalog.Repository) Service {
	return &service{
		catalog:   catalogRepo,
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

func (s *service) ResolvePrice(ctx context.Context, productID string, variantID *string) (*Quote, error) {
	var (
		info *catalog.PriceInfo
		err  error
	)

	// A product with variants sells exclusively through them; the variant
	// row is authoritative whenever a variant id is present.
	if variantID != nil {
		info, err = s.catalog.GetVariantPrice(ctx, *variantID)
	} else {
		info, err = s.catalog.GetProductPrice(ctx, productID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.GetEligibleCampaignItems(ctx, productID, variantID, s.now())
	if err != nil {
		return nil, err
	}

	q := ResolveQuote(info.RegularPrice, info.Discount, items)
	return &q, nil
}

func (s *service) PriceCart(ctx context.Context, lines []CartLine) (*CartQuote, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PriceCart"),
		zap.Int("line_count", len(lines)),
	)

	cq := &CartQuote{Lines: make([]LineQuote, 0, len(lines))}

	for i, line := range lines {
		if line.Quantity <= 0 {
			log.Warn("invalid quantity", zap.Int("index", i))
			return nil, ErrInvalidQuantity
		}

		quote, err := s.ResolvePrice(ctx, line.ProductID, line.VariantID)
		if err != nil {
			log.Error("failed to resolve line price",
				zap.Int("index", i),
				zap.String("product_id", line.ProductID),
				zap.Error(err),
			)
			return nil, err
		}

		subtotal := quote.FinalPrice * int64(line.Quantity)
		cq.ItemsPrice += subtotal

		cq.Lines = append(cq.Lines, LineQuote{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Unit:      *quote,
			Subtotal:  subtotal,
		})
	}

	cq.TaxPrice = roundPercent(cq.ItemsPrice, taxRatePercent)
	cq.TotalPrice = cq.ItemsPrice + cq.TaxPrice

	log.Debug("cart priced",
		zap.Int64("items_price", cq.ItemsPrice),
		zap.Int64("tax_price", cq.TaxPrice),
		zap.Int64("total_price", cq.TotalPrice),
	)

	return cq, nil
}

func (s *service) ValidateTotal(ctx context.Context, lines []CartLine, expectedTotal int64) (*CartQuote, error) {
	cq, err := s.PriceCart(ctx, lines)
	if err != nil {
		return nil, err
	}

	diff := cq.TotalPrice - expectedTotal
	if diff < 0 {
		diff = -diff
	}

	if diff > s.tolerance {
		logger.FromCtx(ctx).Warn("order total mismatch",
			zap.Int64("expected", expectedTotal),
			zap.Int64("actual", cq.TotalPrice),
		)
		return nil, &TotalMismatchError{Expected: expectedTotal, Actual: cq.TotalPrice}
	}

	return cq, nil
}
