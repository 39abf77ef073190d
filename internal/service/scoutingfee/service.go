// internal/service/scoutingfee/service.go
package scoutingfee

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/scoutingfee"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pricing"
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type Repository interface {
	LockCountryWithTx(ctx context.Context, tx pgx.Tx, country string) error
	ListActive(ctx context.Context, country string, role pricing.Role) ([]scoutingfee.Config, error)
	ListActiveWithTx(ctx context.Context, tx pgx.Tx, country string, role pricing.Role) ([]scoutingfee.Config, error)
	CreateWithTx(ctx context.Context, tx pgx.Tx, c *scoutingfee.Config) error
	FindPair(ctx context.Context, pairID string) ([]scoutingfee.Config, error)
	SetPairActive(ctx context.Context, pairID string, active bool) error
	DeletePair(ctx context.Context, pairID string) error
	List(ctx context.Context, filters *scoutingfee.ListFilters) ([]scoutingfee.Config, error)
}

type CountryDirectory interface {
	Canonical(ctx context.Context, name string) (string, error)
}

type ScoutingFeeService struct {
	tx        TxRunner
	repo      Repository
	countries CountryDirectory
	logger    *zap.Logger
}

func NewScoutingFeeService(tx TxRunner, repo Repository, countries CountryDirectory, logger *zap.Logger) *ScoutingFeeService {
	return &ScoutingFeeService{
		tx:        tx,
		repo:      repo,
		countries: countries,
		logger:    logger,
	}
}

// ========== Quotes ==========

// Quote prices a scouting fee for role in country. An active configured
// band containing amount wins; otherwise the default schedule applies.
func (s *ScoutingFeeService) Quote(ctx context.Context, req *scoutingfee.QuoteRequest) (*scoutingfee.Quote, error) {
	if !req.UserType.Valid() {
		return nil, pricing.ErrInvalidRole
	}
	if req.Amount.IsNegative() {
		return nil, pricing.ErrNegativeAmount
	}

	country, err := s.countries.Canonical(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	configs, err := s.repo.ListActive(ctx, country, req.UserType)
	if err != nil {
		return nil, fmt.Errorf("failed to load scouting fees: %w", err)
	}

	q := &scoutingfee.Quote{Country: country, UserType: req.UserType, Amount: req.Amount}
	for i := range configs {
		c := &configs[i]
		b := c.Band()
		if !b.Contains(req.Amount) {
			continue
		}
		fillQuote(q, b)
		q.Source = scoutingfee.SourceConfigured
		q.ConfigID = &c.ID
		return q, nil
	}

	_, b, err := pricing.BandedScoutingFee(req.Amount, pricing.DefaultBands(req.UserType))
	if err != nil {
		return nil, err
	}
	fillQuote(q, b)
	q.Source = scoutingfee.SourceDefault
	return q, nil
}

func fillQuote(q *scoutingfee.Quote, b pricing.Band) {
	q.Fee = b.Fee(q.Amount)
	q.FeeType = b.FeeType
	q.FeeValue = b.Value
	q.BandMin = b.Min
	if !b.Unbounded() {
		upper := b.Max
		q.BandMax = &upper
	}
}

// AdvisorQuote applies the network membership rule to an advisory fee.
func (s *ScoutingFeeService) AdvisorQuote(req *scoutingfee.AdvisorQuoteRequest) (*scoutingfee.AdvisorQuote, error) {
	if req.AdvisoryFee.IsNegative() {
		return nil, pricing.ErrNegativeAmount
	}
	return &scoutingfee.AdvisorQuote{
		AdvisoryFee: req.AdvisoryFee,
		Fee:         pricing.AdvisorScoutingFee(req.AdvisoryFee, req.InvestorInNetwork, req.StartupInNetwork),
	}, nil
}

// ========== Admin ==========

// CreatePair stores the investor and startup bands for a country together.
// Each side is checked against that side's active bands while the country
// is locked.
func (s *ScoutingFeeService) CreatePair(ctx context.Context, req *scoutingfee.CreatePairRequest) (*scoutingfee.Pair, error) {
	country, err := s.countries.Canonical(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	sides := []struct {
		role pricing.Role
		in   scoutingfee.BandInput
	}{
		{pricing.RoleInvestor, req.Investor},
		{pricing.RoleStartup, req.Startup},
	}
	for _, side := range sides {
		if err := side.in.Band().Validate(); err != nil {
			return nil, fmt.Errorf("%s band: %w", side.role, err)
		}
	}

	pair := &scoutingfee.Pair{PairID: ulid.Make().String()}
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.LockCountryWithTx(ctx, tx, country); err != nil {
			return err
		}

		for _, side := range sides {
			existing, err := s.repo.ListActiveWithTx(ctx, tx, country, side.role)
			if err != nil {
				return err
			}
			if err := checkOverlap(side.in.Band(), existing, ""); err != nil {
				return fmt.Errorf("%s band: %w", side.role, err)
			}
		}

		for _, side := range sides {
			c := &scoutingfee.Config{
				PairID:    pair.PairID,
				Country:   country,
				UserType:  side.role,
				MinAmount: side.in.MinAmount,
				MaxAmount: side.in.MaxAmount,
				FeeType:   side.in.FeeType,
				FeeValue:  side.in.FeeValue,
				IsActive:  true,
			}
			if err := s.repo.CreateWithTx(ctx, tx, c); err != nil {
				return err
			}
			if side.role == pricing.RoleInvestor {
				pair.Investor = *c
			} else {
				pair.Startup = *c
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("scouting fee pair created",
		zap.String("pair_id", pair.PairID),
		zap.String("country", country),
	)
	return pair, nil
}

func checkOverlap(b pricing.Band, existing []scoutingfee.Config, skipPair string) error {
	for i := range existing {
		if existing[i].PairID == skipPair {
			continue
		}
		if b.Overlaps(existing[i].Band()) {
			return pricing.ErrOverlappingBands
		}
	}
	return nil
}

func (s *ScoutingFeeService) GetPair(ctx context.Context, pairID string) (*scoutingfee.Pair, error) {
	configs, err := s.repo.FindPair(ctx, pairID)
	if err != nil {
		return nil, err
	}

	pair := &scoutingfee.Pair{PairID: pairID}
	for _, c := range configs {
		switch c.UserType {
		case pricing.RoleInvestor:
			pair.Investor = c
		case pricing.RoleStartup:
			pair.Startup = c
		}
	}
	return pair, nil
}

// ActivatePair re-enables a pair unless another active pair has taken
// its ranges in the meantime.
func (s *ScoutingFeeService) ActivatePair(ctx context.Context, pairID string) error {
	pair, err := s.GetPair(ctx, pairID)
	if err != nil {
		return err
	}

	country := pair.Investor.Country
	if country == "" {
		country = pair.Startup.Country
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.LockCountryWithTx(ctx, tx, country); err != nil {
			return err
		}
		for _, c := range []scoutingfee.Config{pair.Investor, pair.Startup} {
			if c.ID == 0 {
				continue
			}
			existing, err := s.repo.ListActiveWithTx(ctx, tx, country, c.UserType)
			if err != nil {
				return err
			}
			if err := checkOverlap(c.Band(), existing, pairID); err != nil {
				return fmt.Errorf("%s band: %w", c.UserType, err)
			}
		}
		return s.repo.SetPairActive(ctx, pairID, true)
	})
	if err != nil {
		return err
	}

	s.logger.Info("scouting fee pair activated", zap.String("pair_id", pairID))
	return nil
}

func (s *ScoutingFeeService) DeactivatePair(ctx context.Context, pairID string) error {
	if err := s.repo.SetPairActive(ctx, pairID, false); err != nil {
		return err
	}
	s.logger.Info("scouting fee pair deactivated", zap.String("pair_id", pairID))
	return nil
}

func (s *ScoutingFeeService) DeletePair(ctx context.Context, pairID string) error {
	if err := s.repo.DeletePair(ctx, pairID); err != nil {
		return err
	}
	s.logger.Info("scouting fee pair deleted", zap.String("pair_id", pairID))
	return nil
}

func (s *ScoutingFeeService) List(ctx context.Context, filters *scoutingfee.ListFilters) ([]scoutingfee.Config, error) {
	if filters.UserType != nil && !filters.UserType.Valid() {
		return nil, fmt.Errorf("%w: user_type must be Investor or Startup", xerrors.ErrValidation)
	}
	configs, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list scouting fees: %w", err)
	}
	return configs, nil
}

// Schedule returns the bands that currently apply to role in country,
// falling back to the defaults when none are configured.
func (s *ScoutingFeeService) Schedule(ctx context.Context, country string, role pricing.Role) ([]pricing.Band, bool, error) {
	if !role.Valid() {
		return nil, false, pricing.ErrInvalidRole
	}
	country, err := s.countries.Canonical(ctx, country)
	if err != nil {
		return nil, false, err
	}

	configs, err := s.repo.ListActive(ctx, country, role)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load scouting fees: %w", err)
	}
	if len(configs) == 0 {
		return pricing.DefaultBands(role), false, nil
	}

	bands := make([]pricing.Band, 0, len(configs))
	for i := range configs {
		bands = append(bands, configs[i].Band())
	}
	return bands, true, nil
}
