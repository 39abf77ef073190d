// internal/repository/postgres/coupon_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"dealbridge-billing/internal/domain/coupon"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
)

const couponColumns = `
	id, code, discount_type, discount_value, max_uses, used_count,
	valid_from, valid_until, is_active, applicable_plans, created_by,
	created_at, updated_at`

type CouponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{db: db}
}

func scanCoupon(row rowScanner) (*coupon.DiscountCoupon, error) {
	var c coupon.DiscountCoupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxUses, &c.UsedCount,
		&c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.ApplicablePlans, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a coupon. The code must already be upper-cased.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.DiscountCoupon) error {
	query := `
		INSERT INTO discount_coupons (
			code, discount_type, discount_value, max_uses,
			valid_from, valid_until, is_active, applicable_plans, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, used_count, created_at, updated_at
	`

	if c.ApplicablePlans == nil {
		c.ApplicablePlans = pq.Int64Array{}
	}

	err := r.db.QueryRow(
		ctx, query,
		c.Code, c.DiscountType, c.DiscountValue, c.MaxUses,
		c.ValidFrom, c.ValidUntil, c.IsActive, c.ApplicablePlans, c.CreatedBy,
	).Scan(&c.ID, &c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("coupon code %s: %w", c.Code, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// FindByID retrieves a coupon by ID
func (r *CouponRepository) FindByID(ctx context.Context, id int64) (*coupon.DiscountCoupon, error) {
	c, err := scanCoupon(r.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM discount_coupons WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}
	return c, nil
}

// FindByCode retrieves a coupon by its upper-cased code
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.DiscountCoupon, error) {
	c, err := scanCoupon(r.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM discount_coupons WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}
	return c, nil
}

// ExistsByCode checks if a code is taken
func (r *CouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM discount_coupons WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check coupon code: %w", err)
	}
	return exists, nil
}

// Update writes the mutable fields of a coupon. Lowering max_uses below
// used_count is rejected by the table constraint.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.DiscountCoupon) error {
	query := `
		UPDATE discount_coupons
		SET discount_value = $1, max_uses = $2, valid_from = $3, valid_until = $4,
		    applicable_plans = $5, updated_at = $6
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.DiscountValue, c.MaxUses, c.ValidFrom, c.ValidUntil,
		c.ApplicablePlans, time.Now(), c.ID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}

// SetActive activates or deactivates a coupon
func (r *CouponRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE discount_coupons SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// RedeemWithTx increments used_count only while the coupon is active and
// below its cap. It reports false when no use was recorded.
func (r *CouponRepository) RedeemWithTx(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	query := `
		UPDATE discount_coupons
		SET used_count = used_count + 1, updated_at = $1
		WHERE id = $2 AND is_active AND used_count < max_uses
	`

	result, err := tx.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to redeem coupon: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Delete removes a coupon that has never been used
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM discount_coupons WHERE id = $1 AND used_count = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves coupons with filters
func (r *CouponRepository) List(ctx context.Context, filters *coupon.CouponListFilters) ([]coupon.DiscountCoupon, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.DiscountType != nil {
		conditions = append(conditions, fmt.Sprintf("discount_type = $%d", argPos))
		args = append(args, *filters.DiscountType)
		argPos++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("code ILIKE $%d", argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM discount_coupons "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	offset := pagination.Normalize(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM discount_coupons
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, couponColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []coupon.DiscountCoupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate coupons: %w", err)
	}

	return coupons, total, nil
}

// GetStats retrieves coupon statistics
func (r *CouponRepository) GetStats(ctx context.Context) (*coupon.CouponStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active AND valid_from <= NOW() AND valid_until >= NOW() AND used_count < max_uses),
			COUNT(*) FILTER (WHERE valid_until < NOW()),
			COUNT(*) FILTER (WHERE used_count >= max_uses),
			COALESCE(SUM(used_count), 0)
		FROM discount_coupons
	`

	var s coupon.CouponStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalCoupons, &s.ActiveCoupons, &s.ExpiredCoupons, &s.ExhaustedCoupons, &s.TotalRedemptions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon stats: %w", err)
	}
	return &s, nil
}
