// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealbridge-billing/internal/domain/subscription"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
)

const subscriptionColumns = `
	s.id, s.subscription_reference, s.user_id, s.plan_id, s.status,
	s.current_period_start, s.current_period_end, s.startup_count,
	s.unit_price, s.amount, s.currency, s.interval,
	s.coupon_id, s.discount_type, s.discount_value,
	s.payment_intent_id, s.cancelled_at, s.created_at, s.updated_at`

type UserSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewUserSubscriptionRepository(db *pgxpool.Pool) *UserSubscriptionRepository {
	return &UserSubscriptionRepository{db: db}
}

func subscriptionDest(s *subscription.UserSubscription) []any {
	return []any{
		&s.ID, &s.SubscriptionReference, &s.UserID, &s.PlanID, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.StartupCount,
		&s.UnitPrice, &s.Amount, &s.Currency, &s.Interval,
		&s.CouponID, &s.DiscountType, &s.DiscountValue,
		&s.PaymentIntentID, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt,
	}
}

func scanSubscription(row rowScanner) (*subscription.UserSubscription, error) {
	var s subscription.UserSubscription
	if err := row.Scan(subscriptionDest(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateWithTx inserts a subscription inside tx. A second subscription for
// the same payment intent yields ErrConflict.
func (r *UserSubscriptionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, s *subscription.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions (
			subscription_reference, user_id, plan_id, status,
			current_period_start, current_period_end, startup_count,
			unit_price, amount, currency, interval,
			coupon_id, discount_type, discount_value, payment_intent_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		s.SubscriptionReference, s.UserID, s.PlanID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.StartupCount,
		s.UnitPrice, s.Amount, s.Currency, s.Interval,
		s.CouponID, s.DiscountType, s.DiscountValue, s.PaymentIntentID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("subscription for payment intent: %w", xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// FindByID retrieves a subscription by ID
func (r *UserSubscriptionRepository) FindByID(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions s WHERE s.id = $1`

	s, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return s, nil
}

// FindByPaymentIntent retrieves the subscription created for a payment intent
func (r *UserSubscriptionRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*subscription.UserSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions s WHERE s.payment_intent_id = $1`

	s, err := scanSubscription(r.db.QueryRow(ctx, query, intentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return s, nil
}

// UpdateQuantity stores a new startup count and the re-priced amount
func (r *UserSubscriptionRepository) UpdateQuantity(ctx context.Context, s *subscription.UserSubscription) error {
	err := r.db.QueryRow(ctx,
		`UPDATE user_subscriptions SET startup_count = $1, amount = $2, updated_at = $3 WHERE id = $4 RETURNING updated_at`,
		s.StartupCount, s.Amount, time.Now(), s.ID,
	).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	return nil
}

// UpdateStatus moves a subscription from one status to another. The
// update only applies while the row is still in from.
func (r *UserSubscriptionRepository) UpdateStatus(ctx context.Context, id int64, from, to subscription.Status) error {
	query := `
		UPDATE user_subscriptions
		SET status = $1,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("subscription %d is no longer %s: %w", id, from, xerrors.ErrConflict)
	}
	return nil
}

// MarkPastDue moves active subscriptions whose period ended before now to
// past_due and returns them.
func (r *UserSubscriptionRepository) MarkPastDue(ctx context.Context, now time.Time) ([]subscription.UserSubscription, error) {
	query := `
		UPDATE user_subscriptions s
		SET status = 'past_due', updated_at = NOW()
		WHERE s.status = 'active' AND s.current_period_end < $1
		RETURNING ` + subscriptionColumns

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark past due: %w", err)
	}
	defer rows.Close()

	out := []subscription.UserSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListForSummary returns the user's active subscriptions joined with their
// plan, oldest first.
func (r *UserSubscriptionRepository) ListForSummary(ctx context.Context, userID string) ([]subscription.SubscriptionWithPlan, error) {
	query := `
		SELECT ` + subscriptionColumns + `, p.name, p.price
		FROM user_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.user_id = $1 AND s.status = 'active'
		ORDER BY s.created_at ASC, s.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	out := []subscription.SubscriptionWithPlan{}
	for rows.Next() {
		var s subscription.SubscriptionWithPlan
		dest := append(subscriptionDest(&s.UserSubscription), &s.PlanName, &s.PlanPrice)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List retrieves subscriptions with filters
func (r *UserSubscriptionRepository) List(ctx context.Context, filters *subscription.SubscriptionListFilters) ([]subscription.UserSubscription, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("s.user_id = $%d", argPos))
		args = append(args, filters.UserID)
		argPos++
	}
	if filters.PlanID != nil {
		conditions = append(conditions, fmt.Sprintf("s.plan_id = $%d", argPos))
		args = append(args, *filters.PlanID)
		argPos++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM user_subscriptions s "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	offset := pagination.Normalize(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM user_subscriptions s
		%s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d
	`, subscriptionColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []subscription.UserSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	return subs, total, nil
}

// GetStats retrieves subscription statistics
func (r *UserSubscriptionRepository) GetStats(ctx context.Context) (*subscription.SubscriptionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'past_due'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'active'), 0)
		FROM user_subscriptions
	`

	var s subscription.SubscriptionStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalSubscriptions, &s.ActiveSubscriptions, &s.PastDueSubscriptions,
		&s.CancelledSubscriptions, &s.ActiveRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription stats: %w", err)
	}
	return &s, nil
}
