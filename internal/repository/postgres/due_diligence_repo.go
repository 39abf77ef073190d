// internal/repository/postgres/due_diligence_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealbridge-billing/internal/domain/duediligence"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
)

const dueDiligenceColumns = `
	id, reference, user_id, startup_id, country, amount, currency, status,
	payment_intent_id, created_at, updated_at, completed_at`

type DueDiligenceRepository struct {
	db *pgxpool.Pool
}

func NewDueDiligenceRepository(db *pgxpool.Pool) *DueDiligenceRepository {
	return &DueDiligenceRepository{db: db}
}

func scanDueDiligence(row rowScanner) (*duediligence.Request, error) {
	var d duediligence.Request
	err := row.Scan(
		&d.ID, &d.Reference, &d.UserID, &d.StartupID, &d.Country, &d.Amount, &d.Currency, &d.Status,
		&d.PaymentIntentID, &d.CreatedAt, &d.UpdatedAt, &d.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertFee creates or replaces the fee for a country
func (r *DueDiligenceRepository) UpsertFee(ctx context.Context, f *duediligence.Fee) error {
	query := `
		INSERT INTO due_diligence_fees (country, amount, currency, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (country) DO UPDATE
		SET amount = EXCLUDED.amount, currency = EXCLUDED.currency,
		    is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING id, updated_at
	`

	if err := r.db.QueryRow(ctx, query, f.Country, f.Amount, f.Currency, f.IsActive).Scan(&f.ID, &f.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert due diligence fee: %w", err)
	}
	return nil
}

// FindActiveFee returns the active fee for a country
func (r *DueDiligenceRepository) FindActiveFee(ctx context.Context, country string) (*duediligence.Fee, error) {
	var f duediligence.Fee
	err := r.db.QueryRow(ctx, `
		SELECT id, country, amount, currency, is_active, updated_at
		FROM due_diligence_fees WHERE country = $1 AND is_active`, country,
	).Scan(&f.ID, &f.Country, &f.Amount, &f.Currency, &f.IsActive, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find due diligence fee: %w", err)
	}
	return &f, nil
}

// ListFees returns every configured fee ordered by country
func (r *DueDiligenceRepository) ListFees(ctx context.Context) ([]duediligence.Fee, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, country, amount, currency, is_active, updated_at
		FROM due_diligence_fees ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("failed to list due diligence fees: %w", err)
	}
	defer rows.Close()

	fees := []duediligence.Fee{}
	for rows.Next() {
		var f duediligence.Fee
		if err := rows.Scan(&f.ID, &f.Country, &f.Amount, &f.Currency, &f.IsActive, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan due diligence fee: %w", err)
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

// Create inserts a request
func (r *DueDiligenceRepository) Create(ctx context.Context, d *duediligence.Request) error {
	query := `
		INSERT INTO due_diligence_requests (reference, user_id, startup_id, country, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		d.Reference, d.UserID, d.StartupID, d.Country, d.Amount, d.Currency, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create due diligence request: %w", err)
	}
	return nil
}

// FindByID retrieves a request by ID
func (r *DueDiligenceRepository) FindByID(ctx context.Context, id int64) (*duediligence.Request, error) {
	d, err := scanDueDiligence(r.db.QueryRow(ctx, `SELECT `+dueDiligenceColumns+` FROM due_diligence_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find due diligence request: %w", err)
	}
	return d, nil
}

// FindByPaymentIntent retrieves the request paid by a payment intent
func (r *DueDiligenceRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*duediligence.Request, error) {
	d, err := scanDueDiligence(r.db.QueryRow(ctx, `SELECT `+dueDiligenceColumns+` FROM due_diligence_requests WHERE payment_intent_id = $1`, intentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find due diligence request: %w", err)
	}
	return d, nil
}

// SetPaymentIntent records the intent created for a request
func (r *DueDiligenceRepository) SetPaymentIntent(ctx context.Context, id int64, intentID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE due_diligence_requests SET payment_intent_id = $1, updated_at = $2 WHERE id = $3`,
		intentID, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateStatus moves a request from one status to another. The update only
// applies while the row is still in from.
func (r *DueDiligenceRepository) UpdateStatus(ctx context.Context, id int64, from, to duediligence.Status) error {
	query := `
		UPDATE due_diligence_requests
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update due diligence status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("due diligence request %d is no longer %s: %w", id, from, xerrors.ErrConflict)
	}
	return nil
}

// List retrieves requests with filters
func (r *DueDiligenceRepository) List(ctx context.Context, filters *duediligence.ListFilters) ([]duediligence.Request, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, filters.UserID)
		argPos++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM due_diligence_requests "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count due diligence requests: %w", err)
	}

	offset := pagination.Normalize(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM due_diligence_requests
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, dueDiligenceColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list due diligence requests: %w", err)
	}
	defer rows.Close()

	out := []duediligence.Request{}
	for rows.Next() {
		d, err := scanDueDiligence(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan due diligence request: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate due diligence requests: %w", err)
	}
	return out, total, nil
}
