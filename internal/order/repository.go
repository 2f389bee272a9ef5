package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error

	// GetOrderTx is the idempotency probe: returns (nil, nil) when no order
	// with that id exists yet.
	GetOrderTx(ctx context.Context, tx *sql.Tx, orderID string) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// DecrementStock issues a single conditional row decrement; ok is false
	// when the guard (stock >= qty) failed, meaning a concurrent checkout
	// won the remaining units.
	DecrementStock(ctx context.Context, tx *sql.Tx, productID string, variantID *string, qty int) (bool, error)

	// IncrementCampaignSold bumps the campaign-scoped sold counter, guarded
	// against the stock_limit ceiling. ok false means the campaign sold out
	// between pricing and commit.
	IncrementCampaignSold(ctx context.Context, tx *sql.Tx, campaignItemID string, qty int) (bool, error)

	InsertOrder(ctx context.Context, tx *sql.Tx, o *Order) error
	InsertOrderItems(ctx context.Context, tx *sql.Tx, items []OrderItem) error

	// UpdatePaymentStatus is an idempotent absolute-value update keyed by
	// the gateway's correlation id; redelivered webhooks are safe.
	UpdatePaymentStatus(ctx context.Context, orderID string, status string) error

	FindIDByWaybill(ctx context.Context, waybill string) (string, error)

	// GetShippingForUpdate locks the order row so concurrent carrier events
	// serialize their read-modify-write of the shipping blob.
	GetShippingForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*Order, error)
	UpdateShipping(ctx context.Context, tx *sql.Tx, o *Order) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.FromCtx(ctx).Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

const orderColumns = `
	id, user_id, items_price, tax_price, shipping_price,
	discount_amount, total_price, voucher_code, payment_status,
	is_delivered, delivered_at, tracking_order, courier,
	shipping_info, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var shippingInfo []byte

	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.ItemsPrice,
		&o.TaxPrice,
		&o.ShippingPrice,
		&o.DiscountAmount,
		&o.TotalPrice,
		&o.VoucherCode,
		&o.PaymentStatus,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.TrackingOrder,
		&o.Courier,
		&shippingInfo,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(shippingInfo) > 0 {
		if err := json.Unmarshal(shippingInfo, &o.ShippingInfo); err != nil {
			return nil, fmt.Errorf("failed to decode shipping_info: %w", err)
		}
	}

	return &o, nil
}

func (r *repository) GetOrderTx(ctx context.Context, tx *sql.Tx, orderID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(tx.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.getOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *repository) getOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, name, imageurl,
			price, quantity, weight, length, width, height, campaign_item_id
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.VariantID,
			&it.Name, &it.ImageURL, &it.Price, &it.Quantity,
			&it.Weight, &it.Length, &it.Width, &it.Height,
			&it.CampaignItemID,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

func (r *repository) DecrementStock(
	ctx context.Context,
	tx *sql.Tx,
	productID string,
	variantID *string,
	qty int,
) (bool, error) {

	// Atomic conditional decrement; never read-then-write in application
	// memory. The database is the sole arbiter under concurrent checkouts.
	var (
		res sql.Result
		err error
	)

	if variantID != nil {
		res, err = tx.ExecContext(ctx, `
			UPDATE variants
			SET stock = stock - $1
			WHERE id = $2 AND stock >= $1
		`, qty, *variantID)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1
			WHERE id = $2 AND stock >= $1
		`, qty, productID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *repository) IncrementCampaignSold(
	ctx context.Context,
	tx *sql.Tx,
	campaignItemID string,
	qty int,
) (bool, error) {

	res, err := tx.ExecContext(ctx, `
		UPDATE campaign_items
		SET sold_count = sold_count + $1
		WHERE id = $2
		  AND (stock_limit IS NULL OR sold_count + $1 <= stock_limit)
	`, qty, campaignItemID)
	if err != nil {
		return false, fmt.Errorf("failed to increment campaign sold count: %w", err)
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *repository) InsertOrder(ctx context.Context, tx *sql.Tx, o *Order) error {
	shippingInfo, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to encode shipping_info: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, items_price, tax_price, shipping_price,
			discount_amount, total_price, voucher_code, payment_status,
			is_delivered, courier, shipping_info, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		o.ID,
		o.UserID,
		o.ItemsPrice,
		o.TaxPrice,
		o.ShippingPrice,
		o.DiscountAmount,
		o.TotalPrice,
		o.VoucherCode,
		o.PaymentStatus,
		o.IsDelivered,
		o.Courier,
		shippingInfo,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *repository) InsertOrderItems(ctx context.Context, tx *sql.Tx, items []OrderItem) error {
	for i, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, variant_id, name, imageurl,
				price, quantity, weight, length, width, height, campaign_item_id
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`,
			it.ID,
			it.OrderID,
			it.ProductID,
			it.VariantID,
			it.Name,
			it.ImageURL,
			it.Price,
			it.Quantity,
			it.Weight,
			it.Length,
			it.Width,
			it.Height,
			it.CampaignItemID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}

	return nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID string, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *repository) FindIDByWaybill(ctx context.Context, waybill string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE tracking_order = $1
	`, waybill).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}

	return id, nil
}

func (r *repository) GetShippingForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(tx.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) UpdateShipping(ctx context.Context, tx *sql.Tx, o *Order) error {
	shippingInfo, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to encode shipping_info: %w", err)
	}

	var deliveredAt any
	if o.DeliveredAt != nil {
		deliveredAt = *o.DeliveredAt
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET is_delivered = $1,
			delivered_at = $2,
			tracking_order = $3,
			courier = $4,
			shipping_info = $5,
			updated_at = NOW()
		WHERE id = $6
	`,
		o.IsDelivered,
		deliveredAt,
		o.TrackingOrder,
		o.Courier,
		shippingInfo,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update shipping state: %w", err)
	}

	return nil
}
