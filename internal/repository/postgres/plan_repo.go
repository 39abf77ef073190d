// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealbridge-billing/internal/domain/plan"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
)

const planColumns = `
	id, plan_code, name, description, price, currency, interval,
	user_type, country, is_active, created_at, updated_at`

type SubscriptionPlanRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionPlanRepository(db *pgxpool.Pool) *SubscriptionPlanRepository {
	return &SubscriptionPlanRepository{db: db}
}

func scanPlan(row rowScanner) (*plan.SubscriptionPlan, error) {
	var p plan.SubscriptionPlan
	err := row.Scan(
		&p.ID, &p.PlanCode, &p.Name, &p.Description, &p.Price, &p.Currency, &p.Interval,
		&p.UserType, &p.Country, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a plan. A duplicate plan code yields ErrConflict.
func (r *SubscriptionPlanRepository) Create(ctx context.Context, p *plan.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (
			plan_code, name, description, price, currency, interval,
			user_type, country, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.PlanCode, p.Name, p.Description, p.Price, p.Currency, p.Interval,
		p.UserType, p.Country, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("plan code %s: %w", p.PlanCode, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// FindByID retrieves a plan by ID
func (r *SubscriptionPlanRepository) FindByID(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`

	p, err := scanPlan(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return p, nil
}

// ExistsByPlanCode checks if a plan code is taken
func (r *SubscriptionPlanRepository) ExistsByPlanCode(ctx context.Context, planCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM subscription_plans WHERE plan_code = $1)`, planCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check plan code: %w", err)
	}
	return exists, nil
}

// Update writes the mutable fields of a plan
func (r *SubscriptionPlanRepository) Update(ctx context.Context, p *plan.SubscriptionPlan) error {
	query := `
		UPDATE subscription_plans
		SET name = $1, description = $2, price = $3, currency = $4, interval = $5, updated_at = $6
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.Name, p.Description, p.Price, p.Currency, p.Interval, time.Now(), p.ID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

// SetActive activates or deactivates a plan
func (r *SubscriptionPlanRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE subscription_plans SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves plans with filters
func (r *SubscriptionPlanRepository) List(ctx context.Context, filters *plan.PlanListFilters) ([]plan.SubscriptionPlan, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.UserType != nil {
		conditions = append(conditions, fmt.Sprintf("user_type = $%d", argPos))
		args = append(args, *filters.UserType)
		argPos++
	}
	if filters.Country != "" {
		conditions = append(conditions, fmt.Sprintf("country = $%d", argPos))
		args = append(args, filters.Country)
		argPos++
	}
	if filters.Interval != nil {
		conditions = append(conditions, fmt.Sprintf("interval = $%d", argPos))
		args = append(args, *filters.Interval)
		argPos++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR plan_code ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM subscription_plans " + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %w", err)
	}

	offset := pagination.Normalize(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM subscription_plans
		%s
		ORDER BY price ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, planColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []plan.SubscriptionPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, total, nil
}

// CountActiveSubscriptions counts subscriptions that still bill against the plan
func (r *SubscriptionPlanRepository) CountActiveSubscriptions(ctx context.Context, planID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_subscriptions WHERE plan_id = $1 AND status IN ('active', 'past_due')`,
		planID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count plan subscriptions: %w", err)
	}
	return n, nil
}

// GetStats retrieves plan statistics
func (r *SubscriptionPlanRepository) GetStats(ctx context.Context) (*plan.PlanStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM subscription_plans),
			(SELECT COUNT(*) FROM subscription_plans WHERE is_active),
			(SELECT COUNT(*) FROM user_subscriptions WHERE status = 'active')
	`

	var stats plan.PlanStats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.TotalPlans, &stats.ActivePlans, &stats.ActiveSubscriptions); err != nil {
		return nil, fmt.Errorf("failed to get plan stats: %w", err)
	}
	return &stats, nil
}
