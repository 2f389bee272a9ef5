package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("catalog item not found")

// Price rows are cached briefly to keep webhook-heavy periods off the
// database. Stock on a cached row is advisory only; the order finalizer
// re-reads stock inside its own transaction.
const priceCacheTTL = 30 * time.Second

type Repository interface {
	GetProductPrice(ctx context.Context, productID string) (*PriceInfo, error)
	GetVariantPrice(ctx context.Context, variantID string) (*PriceInfo, error)

	// GetEligibleCampaignItems returns campaign items pointing at the given
	// product (or its specific variant), restricted to active campaigns whose
	// window contains now, ordered by campaign priority descending.
	GetEligibleCampaignItems(ctx context.Context, productID string, variantID *string, now time.Time) ([]CampaignItem, error)

	GetItemSnapshot(ctx context.Context, tx *sql.Tx, productID string, variantID *string) (*ItemSnapshot, error)
}

type repository struct {
	db    *sql.DB
	cache cache.Store
}

func NewRepository(db *sql.DB, store cache.Store) Repository {
	return &repository{db: db, cache: store}
}

func (r *repository) GetProductPrice(ctx context.Context, productID string) (*PriceInfo, error) {
	cacheKey := "price:product:" + productID
	if v, ok := r.cache.Get(cacheKey); ok {
		if info, ok := v.(*PriceInfo); ok {
			return info, nil
		}
	}

	query := `
		SELECT id, name, regular_price, discount, stock
		FROM products
		WHERE id = $1
	`

	var info PriceInfo
	err := r.db.QueryRowContext(ctx, query, productID).
		Scan(&info.ID, &info.Name, &info.RegularPrice, &info.Discount, &info.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product price: %w", err)
	}

	r.cache.Set(cacheKey, &info, priceCacheTTL)
	return &info, nil
}

func (r *repository) GetVariantPrice(ctx context.Context, variantID string) (*PriceInfo, error) {
	cacheKey := "price:variant:" + variantID
	if v, ok := r.cache.Get(cacheKey); ok {
		if info, ok := v.(*PriceInfo); ok {
			return info, nil
		}
	}

	query := `
		SELECT v.id, v.name, v.regular_price, v.discount, v.stock
		FROM variants v
		WHERE v.id = $1
	`

	var info PriceInfo
	err := r.db.QueryRowContext(ctx, query, variantID).
		Scan(&info.ID, &info.Name, &info.RegularPrice, &info.Discount, &info.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant price: %w", err)
	}

	r.cache.Set(cacheKey, &info, priceCacheTTL)
	return &info, nil
}

func (r *repository) GetEligibleCampaignItems(
	ctx context.Context,
	productID string,
	variantID *string,
	now time.Time,
) ([]CampaignItem, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetEligibleCampaignItems"),
		zap.String("product_id", productID),
	)

	// Campaign stock gates (sold_count vs stock_limit) are never cached:
	// a stale gate would let an exhausted campaign keep discounting.
	query := `
		SELECT
			ci.id, ci.campaign_id, c.name, c.priority,
			ci.product_id, ci.variant_id,
			COALESCE(ci.custom_discount_type, c.discount_type),
			COALESCE(ci.custom_discount, c.default_discount),
			ci.stock_limit, ci.sold_count
		FROM campaign_items ci
		JOIN campaigns c ON c.id = ci.campaign_id
		WHERE c.is_active = TRUE
		  AND c.start_date <= $3
		  AND (c.end_date IS NULL OR c.end_date >= $3)
		  AND ci.product_id = $1
		  AND (ci.variant_id IS NULL OR ci.variant_id = $2)
		ORDER BY c.priority DESC, c.id
	`

	rows, err := r.db.QueryContext(ctx, query, productID, variantID, now)
	if err != nil {
		log.Error("failed to query campaign items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []CampaignItem
	for rows.Next() {
		var ci CampaignItem
		if err := rows.Scan(
			&ci.ID,
			&ci.CampaignID,
			&ci.CampaignName,
			&ci.Priority,
			&ci.ProductID,
			&ci.VariantID,
			&ci.DiscountType,
			&ci.DiscountValue,
			&ci.StockLimit,
			&ci.SoldCount,
		); err != nil {
			log.Error("failed to scan campaign item row", zap.Error(err))
			return nil, err
		}
		items = append(items, ci)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) GetItemSnapshot(
	ctx context.Context,
	tx *sql.Tx,
	productID string,
	variantID *string,
) (*ItemSnapshot, error) {

	snap := ItemSnapshot{ProductID: productID, VariantID: variantID}

	if variantID != nil {
		query := `
			SELECT v.name, COALESCE(v.imageurl, p.imageurl, ''),
				v.stock, p.weight, p.length, p.width, p.height
			FROM variants v
			JOIN products p ON p.id = v.product_id
			WHERE v.id = $1
		`
		err := tx.QueryRowContext(ctx, query, *variantID).
			Scan(&snap.Name, &snap.ImageURL, &snap.Stock,
				&snap.Weight, &snap.Length, &snap.Width, &snap.Height)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &snap, nil
	}

	query := `
		SELECT name, COALESCE(imageurl, ''), stock, weight, length, width, height
		FROM products
		WHERE id = $1
	`
	err := tx.QueryRowContext(ctx, query, productID).
		Scan(&snap.Name, &snap.ImageURL, &snap.Stock,
			&snap.Weight, &snap.Length, &snap.Width, &snap.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
