// internal/repository/postgres/scouting_fee_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealbridge-billing/internal/domain/scoutingfee"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pricing"
)

const scoutingFeeColumns = `
	id, pair_id, country, user_type, min_amount, max_amount,
	fee_type, fee_value, is_active, created_at`

type ScoutingFeeRepository struct {
	db *pgxpool.Pool
}

func NewScoutingFeeRepository(db *pgxpool.Pool) *ScoutingFeeRepository {
	return &ScoutingFeeRepository{db: db}
}

func scanScoutingFee(row rowScanner) (*scoutingfee.Config, error) {
	var c scoutingfee.Config
	err := row.Scan(
		&c.ID, &c.PairID, &c.Country, &c.UserType, &c.MinAmount, &c.MaxAmount,
		&c.FeeType, &c.FeeValue, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectScoutingFees(rows pgx.Rows) ([]scoutingfee.Config, error) {
	defer rows.Close()

	out := []scoutingfee.Config{}
	for rows.Next() {
		c, err := scanScoutingFee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scouting fee: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// LockCountryWithTx serialises config writes for one country until tx ends,
// so two concurrent creates cannot both pass the overlap check.
func (r *ScoutingFeeRepository) LockCountryWithTx(ctx context.Context, tx pgx.Tx, country string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('scouting_fee:' || $1))`, country); err != nil {
		return fmt.Errorf("failed to lock scouting fee country: %w", err)
	}
	return nil
}

// ListActive returns the active bands for a country and role ordered by min amount.
func (r *ScoutingFeeRepository) ListActive(ctx context.Context, country string, role pricing.Role) ([]scoutingfee.Config, error) {
	return r.listActive(ctx, r.db, country, role)
}

func (r *ScoutingFeeRepository) ListActiveWithTx(ctx context.Context, tx pgx.Tx, country string, role pricing.Role) ([]scoutingfee.Config, error) {
	return r.listActive(ctx, tx, country, role)
}

func (r *ScoutingFeeRepository) listActive(ctx context.Context, q querier, country string, role pricing.Role) ([]scoutingfee.Config, error) {
	query := `SELECT ` + scoutingFeeColumns + `
		FROM scouting_fee_configs
		WHERE country = $1 AND user_type = $2 AND is_active
		ORDER BY min_amount ASC`

	rows, err := q.Query(ctx, query, country, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list scouting fees: %w", err)
	}
	return collectScoutingFees(rows)
}

// CreateWithTx inserts one side of a pair
func (r *ScoutingFeeRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, c *scoutingfee.Config) error {
	query := `
		INSERT INTO scouting_fee_configs (
			pair_id, country, user_type, min_amount, max_amount, fee_type, fee_value, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx, query,
		c.PairID, c.Country, c.UserType, c.MinAmount, c.MaxAmount, c.FeeType, c.FeeValue, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scouting fee: %w", err)
	}
	return nil
}

// FindPair returns both sides of a pair
func (r *ScoutingFeeRepository) FindPair(ctx context.Context, pairID string) ([]scoutingfee.Config, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+scoutingFeeColumns+` FROM scouting_fee_configs WHERE pair_id = $1 ORDER BY user_type`,
		pairID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find scouting fee pair: %w", err)
	}
	configs, err := collectScoutingFees(rows)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return configs, nil
}

// SetPairActive toggles both sides of a pair
func (r *ScoutingFeeRepository) SetPairActive(ctx context.Context, pairID string, active bool) error {
	result, err := r.db.Exec(ctx, `UPDATE scouting_fee_configs SET is_active = $1 WHERE pair_id = $2`, active, pairID)
	if err != nil {
		return fmt.Errorf("failed to update scouting fee pair: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DeletePair removes both sides of a pair
func (r *ScoutingFeeRepository) DeletePair(ctx context.Context, pairID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM scouting_fee_configs WHERE pair_id = $1`, pairID)
	if err != nil {
		return fmt.Errorf("failed to delete scouting fee pair: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves configs with filters
func (r *ScoutingFeeRepository) List(ctx context.Context, filters *scoutingfee.ListFilters) ([]scoutingfee.Config, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.Country != "" {
		conditions = append(conditions, fmt.Sprintf("country = $%d", argPos))
		args = append(args, filters.Country)
		argPos++
	}
	if filters.UserType != nil {
		conditions = append(conditions, fmt.Sprintf("user_type = $%d", argPos))
		args = append(args, *filters.UserType)
		argPos++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT ` + scoutingFeeColumns + ` FROM scouting_fee_configs ` + whereClause +
		` ORDER BY country, user_type, min_amount`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scouting fees: %w", err)
	}
	return collectScoutingFees(rows)
}
