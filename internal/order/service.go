package order

import (
	"context"
	"database/sql"
	"time"

	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/pricing"
	"lokapasar-be/internal/voucher"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FinalizeInput struct {
	// OrderID is client-supplied and doubles as the idempotency key:
	// retrying finalization of an already-finalized order is a no-op.
	OrderID       string
	UserID        uint
	Lines         []pricing.CartLine
	ExpectedTotal int64
	ShippingPrice int64
	Courier       *string
	VoucherCode   *string
}

type Service interface {
	// Finalize runs one checkout attempt as a single atomic transaction:
	// stock check, price re-validation, optional voucher redemption, stock
	// decrement, frozen order-item snapshots. Any failure rolls back the
	// whole attempt.
	Finalize(ctx context.Context, input FinalizeInput) (*Order, error)

	// MarkPaymentStatus applies a gateway status idempotently, keyed by the
	// gateway's order-id correlation field.
	MarkPaymentStatus(ctx context.Context, orderID string, status string) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

type service struct {
	repo       Repository
	catalog    catalog.Repository
	pricing    pricing.Service
	voucherSvc voucher.Service
	now        func() time.Time
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	pricingSvc pricing.Service,
	voucherSvc voucher.Service,
) Service {
	return &service{
		repo:       repo,
		catalog:    catalogRepo,
		pricing:    pricingSvc,
		voucherSvc: voucherSvc,
		now:        time.Now,
	}
}

func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Finalize"),
		zap.String("order_id", input.OrderID),
		zap.Int("line_count", len(input.Lines)),
	)

	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	log.Info("order finalization started")

	var result *Order

	err := s.repo.WithTx(ctx, func(tx *sql.Tx) error {
		// 1. Idempotency: a retried finalization must not double-decrement.
		existing, err := s.repo.GetOrderTx(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Info("order already finalized, returning existing")
			result = existing
			return nil
		}

		// 2. Stock check: collect every conflicting line before aborting so
		// the client sees all of them at once.
		snapshots := make([]*catalog.ItemSnapshot, len(input.Lines))
		var conflicts []StockConflict

		for i, line := range input.Lines {
			snap, err := s.catalog.GetItemSnapshot(ctx, tx, line.ProductID, line.VariantID)
			if err != nil {
				return err
			}
			snapshots[i] = snap

			if snap.Stock < line.Quantity {
				conflicts = append(conflicts, StockConflict{
					ProductID: line.ProductID,
					VariantID: line.VariantID,
					Requested: line.Quantity,
					Available: snap.Stock,
				})
			}
		}

		if len(conflicts) > 0 {
			log.Warn("insufficient stock", zap.Int("conflicts", len(conflicts)))
			return &InsufficientStockError{Conflicts: conflicts}
		}

		// 3. Price re-validation against the client's claimed total. This is
		// the chokepoint that keeps a tampered client price out of
		// persisted state.
		quote, err := s.pricing.ValidateTotal(ctx, input.Lines, input.ExpectedTotal)
		if err != nil {
			return err
		}

		// 4. Voucher validation + redemption, same transaction.
		var discountAmount int64
		var voucherCode *string

		if input.VoucherCode != nil && *input.VoucherCode != "" {
			res, err := s.voucherSvc.Validate(ctx, tx, voucher.ValidateInput{
				Code:       *input.VoucherCode,
				UserID:     input.UserID,
				OrderTotal: quote.TotalPrice,
				ProductIDs: productIDs(input.Lines),
				VariantIDs: variantIDs(input.Lines),
			})
			if err != nil {
				return err
			}
			if !res.Valid {
				return &VoucherRejectedError{Reason: string(res.Reason)}
			}

			if err := s.voucherSvc.Redeem(ctx, tx, res.Voucher.ID); err != nil {
				return err
			}

			discountAmount = res.Discount
			voucherCode = &res.Voucher.Code
		}

		// 5. Stock decrement: one conditional UPDATE per line. A failed
		// guard here means a concurrent checkout took the stock after our
		// read; report it as a conflict, the rollback undoes everything.
		for i, line := range input.Lines {
			ok, err := s.repo.DecrementStock(ctx, tx, line.ProductID, line.VariantID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &InsufficientStockError{Conflicts: []StockConflict{{
					ProductID: line.ProductID,
					VariantID: line.VariantID,
					Requested: line.Quantity,
					Available: snapshots[i].Stock - line.Quantity,
				}}}
			}
		}

		// Keep campaign-scoped counters true under concurrency: a line
		// priced with a stock-limited campaign consumes that campaign's
		// allocation in the same transaction.
		for _, lq := range quote.Lines {
			ci := lq.Unit.ActiveCampaign
			if ci == nil || ci.StockLimit == nil {
				continue
			}
			ok, err := s.repo.IncrementCampaignSold(ctx, tx, ci.ID, lq.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrCampaignExhausted
			}
		}

		// 6. Persist the order with frozen snapshots.
		totalPrice := quote.TotalPrice + input.ShippingPrice - discountAmount
		if totalPrice < 0 {
			totalPrice = 0
		}

		o := &Order{
			ID:             input.OrderID,
			UserID:         input.UserID,
			ItemsPrice:     quote.ItemsPrice,
			TaxPrice:       quote.TaxPrice,
			ShippingPrice:  input.ShippingPrice,
			DiscountAmount: discountAmount,
			TotalPrice:     totalPrice,
			VoucherCode:    voucherCode,
			PaymentStatus:  PaymentStatusPending,
			Courier:        input.Courier,
			CreatedAt:      s.now(),
		}

		items := make([]OrderItem, 0, len(input.Lines))
		for i, line := range input.Lines {
			snap := snapshots[i]
			lq := quote.Lines[i]

			item := OrderItem{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Name:      snap.Name,
				ImageURL:  snap.ImageURL,
				Price:     lq.Unit.FinalPrice,
				Quantity:  line.Quantity,
				Weight:    snap.Weight,
				Length:    snap.Length,
				Width:     snap.Width,
				Height:    snap.Height,
			}
			if ci := lq.Unit.ActiveCampaign; ci != nil {
				item.CampaignItemID = &ci.ID
			}
			items = append(items, item)
		}

		if err := s.repo.InsertOrder(ctx, tx, o); err != nil {
			return err
		}
		if err := s.repo.InsertOrderItems(ctx, tx, items); err != nil {
			return err
		}

		o.Items = items
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("order finalized",
		zap.Int64("total_price", result.TotalPrice),
		zap.String("payment_status", result.PaymentStatus),
	)

	return result, nil
}

func (s *service) MarkPaymentStatus(ctx context.Context, orderID string, status string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID),
		zap.String("payment_status", status),
	)

	if err := s.repo.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		return err
	}

	log.Info("payment status applied")
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func productIDs(lines []pricing.CartLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func variantIDs(lines []pricing.CartLine) []string {
	var ids []string
	for _, l := range lines {
		if l.VariantID != nil {
			ids = append(ids, *l.VariantID)
		}
	}
	return ids
}
