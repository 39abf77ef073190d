package scoutingfee_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/scoutingfee"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pricing"
	service "dealbridge-billing/internal/service/scoutingfee"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error { return fn(nil) }

type fakeRepo struct {
	configs []scoutingfee.Config
	locked  []string
	nextID  int64
}

func (r *fakeRepo) LockCountryWithTx(_ context.Context, _ pgx.Tx, country string) error {
	r.locked = append(r.locked, country)
	return nil
}

func (r *fakeRepo) ListActive(_ context.Context, country string, role pricing.Role) ([]scoutingfee.Config, error) {
	var out []scoutingfee.Config
	for _, c := range r.configs {
		if c.Country == country && c.UserType == role && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActiveWithTx(ctx context.Context, _ pgx.Tx, country string, role pricing.Role) ([]scoutingfee.Config, error) {
	return r.ListActive(ctx, country, role)
}

func (r *fakeRepo) CreateWithTx(_ context.Context, _ pgx.Tx, c *scoutingfee.Config) error {
	r.nextID++
	c.ID = r.nextID
	r.configs = append(r.configs, *c)
	return nil
}

func (r *fakeRepo) FindPair(_ context.Context, pairID string) ([]scoutingfee.Config, error) {
	var out []scoutingfee.Config
	for _, c := range r.configs {
		if c.PairID == pairID {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return out, nil
}

func (r *fakeRepo) SetPairActive(_ context.Context, pairID string, active bool) error {
	found := false
	for i := range r.configs {
		if r.configs[i].PairID == pairID {
			r.configs[i].IsActive = active
			found = true
		}
	}
	if !found {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *fakeRepo) DeletePair(_ context.Context, pairID string) error {
	kept := r.configs[:0]
	for _, c := range r.configs {
		if c.PairID != pairID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(r.configs) {
		return xerrors.ErrNotFound
	}
	r.configs = kept
	return nil
}

func (r *fakeRepo) List(context.Context, *scoutingfee.ListFilters) ([]scoutingfee.Config, error) {
	return r.configs, nil
}

type stubCountries struct{}

func (stubCountries) Canonical(_ context.Context, name string) (string, error) {
	switch strings.ToLower(name) {
	case "kenya":
		return "Kenya", nil
	case "nigeria":
		return "Nigeria", nil
	}
	return "", xerrors.ErrValidation
}

func newService(repo *fakeRepo) *service.ScoutingFeeService {
	return service.NewScoutingFeeService(fakeTx{}, repo, stubCountries{}, zap.NewNop())
}

func band(min, max, value string, typ pricing.FeeType) scoutingfee.BandInput {
	return scoutingfee.BandInput{MinAmount: dec(min), MaxAmount: dec(max), FeeType: typ, FeeValue: dec(value)}
}

func TestQuoteFallsBackToDefaults(t *testing.T) {
	svc := newService(&fakeRepo{})

	tests := []struct {
		name   string
		role   pricing.Role
		amount string
		fee    string
	}{
		{"investor first band", pricing.RoleInvestor, "50000", "1000"},
		{"investor band edge is half open", pricing.RoleInvestor, "100000", "1500"},
		{"investor top band", pricing.RoleInvestor, "2000000", "10000"},
		{"startup second band", pricing.RoleStartup, "200000", "1600"},
		{"startup third band", pricing.RoleStartup, "500000", "2500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.Quote(context.Background(), &scoutingfee.QuoteRequest{
				Country: "kenya", UserType: tt.role, Amount: dec(tt.amount),
			})
			require.NoError(t, err)
			assert.Equal(t, "Kenya", q.Country)
			assert.Equal(t, scoutingfee.SourceDefault, q.Source)
			assert.True(t, dec(tt.fee).Equal(q.Fee), q.Fee.String())
			assert.Nil(t, q.ConfigID)
		})
	}
}

func TestQuoteTopBandIsUnbounded(t *testing.T) {
	q, err := newService(&fakeRepo{}).Quote(context.Background(), &scoutingfee.QuoteRequest{
		Country: "Kenya", UserType: pricing.RoleStartup, Amount: dec("5000000"),
	})
	require.NoError(t, err)
	assert.Nil(t, q.BandMax)
	assert.True(t, dec("1000000").Equal(q.BandMin))
}

func TestQuotePrefersConfiguredBand(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("0", "250000", "500", pricing.FeeFixed),
		Startup:  band("0", "250000", "2.5", pricing.FeePercentage),
	})
	require.NoError(t, err)

	q, err := svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Kenya", UserType: pricing.RoleInvestor, Amount: dec("120000")})
	require.NoError(t, err)
	assert.Equal(t, scoutingfee.SourceConfigured, q.Source)
	assert.True(t, dec("500").Equal(q.Fee))
	require.NotNil(t, q.ConfigID)

	q, err = svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Kenya", UserType: pricing.RoleStartup, Amount: dec("100000")})
	require.NoError(t, err)
	assert.True(t, dec("2500").Equal(q.Fee))

	// Outside the configured range the default schedule applies.
	q, err = svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Kenya", UserType: pricing.RoleInvestor, Amount: dec("600000")})
	require.NoError(t, err)
	assert.Equal(t, scoutingfee.SourceDefault, q.Source)
	assert.True(t, dec("6000").Equal(q.Fee))

	// Other countries are unaffected.
	q, err = svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Nigeria", UserType: pricing.RoleInvestor, Amount: dec("120000")})
	require.NoError(t, err)
	assert.Equal(t, scoutingfee.SourceDefault, q.Source)
}

func TestQuoteRejections(t *testing.T) {
	svc := newService(&fakeRepo{})
	ctx := context.Background()

	_, err := svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Kenya", UserType: "Advisor", Amount: dec("1")})
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	_, err = svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Kenya", UserType: pricing.RoleInvestor, Amount: dec("-1")})
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	_, err = svc.Quote(ctx, &scoutingfee.QuoteRequest{Country: "Atlantis", UserType: pricing.RoleInvestor, Amount: dec("1")})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

func TestCreatePairRejectsOverlap(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("0", "100000", "1", pricing.FeePercentage),
		Startup:  band("0", "100000", "1", pricing.FeePercentage),
	})
	require.NoError(t, err)

	// Adjacent half-open ranges do not overlap.
	_, err = svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("100000", "0", "1", pricing.FeePercentage),
		Startup:  band("100000", "0", "1", pricing.FeePercentage),
	})
	require.NoError(t, err)

	_, err = svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("5000000", "6000000", "1", pricing.FeePercentage),
		Startup:  band("5000000", "6000000", "1", pricing.FeePercentage),
	})
	assert.ErrorIs(t, err, pricing.ErrOverlappingBands)
	assert.Len(t, repo.configs, 4)
	assert.Equal(t, []string{"Kenya", "Kenya", "Kenya"}, repo.locked)
}

func TestCreatePairValidatesBands(t *testing.T) {
	repo := &fakeRepo{}
	_, err := newService(repo).CreatePair(context.Background(), &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("100", "50", "1", pricing.FeePercentage),
		Startup:  band("0", "100", "1", pricing.FeePercentage),
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidBand)
	assert.Empty(t, repo.configs)
	assert.Empty(t, repo.locked)
}

func TestPairLifecycle(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	ctx := context.Background()

	pair, err := svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("0", "100000", "1", pricing.FeePercentage),
		Startup:  band("0", "100000", "1", pricing.FeePercentage),
	})
	require.NoError(t, err)
	assert.Equal(t, pair.PairID, pair.Investor.PairID)
	assert.Equal(t, pricing.RoleStartup, pair.Startup.UserType)

	require.NoError(t, svc.DeactivatePair(ctx, pair.PairID))

	// A new pair may take the range while the first is inactive.
	_, err = svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("50000", "150000", "1", pricing.FeePercentage),
		Startup:  band("50000", "150000", "1", pricing.FeePercentage),
	})
	require.NoError(t, err)

	err = svc.ActivatePair(ctx, pair.PairID)
	assert.ErrorIs(t, err, pricing.ErrOverlappingBands)

	require.NoError(t, svc.DeletePair(ctx, pair.PairID))
	_, err = svc.GetPair(ctx, pair.PairID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestScheduleReportsSource(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	ctx := context.Background()

	bands, configured, err := svc.Schedule(ctx, "Kenya", pricing.RoleInvestor)
	require.NoError(t, err)
	assert.False(t, configured)
	assert.Len(t, bands, 4)

	_, err = svc.CreatePair(ctx, &scoutingfee.CreatePairRequest{
		Country:  "Kenya",
		Investor: band("0", "0", "3", pricing.FeePercentage),
		Startup:  band("0", "0", "2", pricing.FeePercentage),
	})
	require.NoError(t, err)

	bands, configured, err = svc.Schedule(ctx, "Kenya", pricing.RoleInvestor)
	require.NoError(t, err)
	assert.True(t, configured)
	require.Len(t, bands, 1)
	assert.True(t, bands[0].Unbounded())
}

func TestAdvisorQuote(t *testing.T) {
	svc := newService(&fakeRepo{})

	q, err := svc.AdvisorQuote(&scoutingfee.AdvisorQuoteRequest{AdvisoryFee: dec("1000"), InvestorInNetwork: true})
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(q.Fee))

	q, err = svc.AdvisorQuote(&scoutingfee.AdvisorQuoteRequest{AdvisoryFee: dec("1000"), InvestorInNetwork: true, StartupInNetwork: true})
	require.NoError(t, err)
	assert.True(t, q.Fee.IsZero())

	_, err = svc.AdvisorQuote(&scoutingfee.AdvisorQuoteRequest{AdvisoryFee: dec("-5")})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}
