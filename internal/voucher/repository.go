package voucher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type Repository interface {
	// GetByCodeForUpdate fetches the voucher row with a row-level lock so
	// concurrent redemption attempts against the same code serialize on the
	// database. Must be called inside the finalization transaction.
	// Returns (nil, nil) when no voucher matches.
	GetByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*Voucher, error)

	// IncrementUsage bumps used_count by one, guarded so the count can never
	// pass total_limit even if a caller skips validation. Returns
	// ErrRedeemExhausted when no headroom remains.
	IncrementUsage(ctx context.Context, tx *sql.Tx, voucherID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*Voucher, error) {
	query := `
		SELECT
			id, code, is_active, start_date, expires,
			total_limit, limit_per_user, used_count,
			type, value, application_type, min_purchase,
			product_ids, variant_ids
		FROM vouchers
		WHERE code = $1
		FOR UPDATE
	`

	var v Voucher
	err := tx.QueryRowContext(ctx, query, strings.ToUpper(code)).
		Scan(
			&v.ID,
			&v.Code,
			&v.IsActive,
			&v.StartDate,
			&v.Expires,
			&v.TotalLimit,
			&v.LimitPerUser,
			&v.UsedCount,
			&v.Type,
			&v.Value,
			&v.ApplicationType,
			&v.MinPurchase,
			pq.Array(&v.ProductIDs),
			pq.Array(&v.VariantIDs),
		)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockFailed, err)
	}

	return &v, nil
}

func (r *repository) IncrementUsage(ctx context.Context, tx *sql.Tx, voucherID string) error {
	query := `
		UPDATE vouchers
		SET used_count = used_count + 1
		WHERE id = $1
		  AND (total_limit IS NULL OR used_count < total_limit)
	`

	res, err := tx.ExecContext(ctx, query, voucherID)
	if err != nil {
		return fmt.Errorf("failed to increment voucher usage: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrRedeemExhausted
	}

	return nil
}
