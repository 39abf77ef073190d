package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "dealbridge-billing/internal/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(2), got.StringFixed(2))
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name string
		base string
		d    *Discount
		want string
	}{
		{"no discount", "100", nil, "100"},
		{"percentage", "100", &Discount{Type: DiscountPercentage, Value: dec("20")}, "80"},
		{"full percentage", "100", &Discount{Type: DiscountPercentage, Value: dec("100")}, "0"},
		{"fixed", "100", &Discount{Type: DiscountFixed, Value: dec("30")}, "70"},
		{"fixed above base clamps", "100", &Discount{Type: DiscountFixed, Value: dec("150")}, "0"},
		{"percentage above 100 clamps", "100", &Discount{Type: DiscountPercentage, Value: dec("120")}, "0"},
		{"rounds to cents", "10", &Discount{Type: DiscountPercentage, Value: dec("33.333")}, "6.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMoney(t, tt.want, ApplyDiscount(dec(tt.base), tt.d))
		})
	}
}

func TestDiscountAmount(t *testing.T) {
	assertMoney(t, "20", DiscountAmount(dec("100"), &Discount{Type: DiscountPercentage, Value: dec("20")}))
	assertMoney(t, "100", DiscountAmount(dec("100"), &Discount{Type: DiscountFixed, Value: dec("150")}))
	assertMoney(t, "0", DiscountAmount(dec("100"), nil))
}

func TestDiscountValidate(t *testing.T) {
	assert.NoError(t, Discount{Type: DiscountPercentage, Value: dec("100")}.Validate())
	assert.NoError(t, Discount{Type: DiscountFixed, Value: dec("500")}.Validate())
	assert.ErrorIs(t, Discount{Type: DiscountPercentage, Value: dec("100.01")}.Validate(), ErrInvalidDiscountValue)
	assert.ErrorIs(t, Discount{Type: DiscountFixed, Value: dec("-1")}.Validate(), ErrInvalidDiscountValue)
	assert.ErrorIs(t, Discount{Type: "free_trial", Value: dec("1")}.Validate(), xerrors.ErrValidation)
}

func TestSubscriptionPrice(t *testing.T) {
	pct20 := &Discount{Type: DiscountPercentage, Value: dec("20")}

	got, err := SubscriptionPrice(dec("15"), 3, nil)
	require.NoError(t, err)
	assertMoney(t, "45", got)

	got, err = SubscriptionPrice(dec("15"), 3, pct20)
	require.NoError(t, err)
	assertMoney(t, "36", got)

	got, err = SubscriptionPrice(dec("15"), 0, pct20)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = SubscriptionPrice(dec("15"), -1, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

func TestCouponUsable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	base := Coupon{
		IsActive:   true,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
		UsedCount:  2,
		MaxUses:    5,
	}

	assert.True(t, CouponUsable(base, now))

	inactive := base
	inactive.IsActive = false
	assert.False(t, CouponUsable(inactive, now))

	notYet := base
	notYet.ValidFrom = now.Add(time.Minute)
	assert.False(t, CouponUsable(notYet, now))

	expired := base
	expired.ValidUntil = now.Add(-time.Minute)
	assert.False(t, CouponUsable(expired, now))

	exhausted := base
	exhausted.UsedCount = 5
	assert.False(t, CouponUsable(exhausted, now))
	assert.Equal(t, 5, exhausted.UsedCount)

	edges := base
	edges.ValidFrom = now
	edges.ValidUntil = now
	assert.True(t, CouponUsable(edges, now))
}

func TestAdvisorScoutingFee(t *testing.T) {
	fee := dec("1000")
	assertMoney(t, "0", AdvisorScoutingFee(fee, true, true))
	assertMoney(t, "300", AdvisorScoutingFee(fee, true, false))
	assertMoney(t, "300", AdvisorScoutingFee(fee, false, true))
	assertMoney(t, "1000", AdvisorScoutingFee(fee, false, false))
}

func TestBandedScoutingFeeDefaults(t *testing.T) {
	tests := []struct {
		role    Role
		amount  string
		rate    string
		fee     string
		openEnd bool
	}{
		{RoleInvestor, "0", "2.0", "0", false},
		{RoleInvestor, "99999.99", "2.0", "2000", false},
		{RoleInvestor, "100000", "1.5", "1500", false},
		{RoleInvestor, "250000", "1.5", "3750", false},
		{RoleInvestor, "500000", "1.0", "5000", false},
		{RoleInvestor, "1000000", "0.5", "5000", true},
		{RoleInvestor, "50000000", "0.5", "250000", true},
		{RoleStartup, "50000", "1.0", "500", false},
		{RoleStartup, "250000", "0.8", "2000", false},
		{RoleStartup, "750000", "0.5", "3750", false},
		{RoleStartup, "2000000", "0.3", "6000", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.amount, func(t *testing.T) {
			fee, band, err := BandedScoutingFee(dec(tt.amount), DefaultBands(tt.role))
			require.NoError(t, err)
			assert.True(t, band.Value.Equal(dec(tt.rate)), "rate %s", band.Value)
			assert.Equal(t, tt.openEnd, band.Unbounded())
			assertMoney(t, tt.fee, fee)
		})
	}
}

func TestBandedScoutingFeeErrors(t *testing.T) {
	_, _, err := BandedScoutingFee(dec("-1"), DefaultBands(RoleInvestor))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	bands := []Band{{Min: dec("1000"), Max: dec("2000"), FeeType: FeeFixed, Value: dec("50")}}
	_, _, err = BandedScoutingFee(dec("10"), bands)
	assert.ErrorIs(t, err, ErrNoBand)

	fee, _, err := BandedScoutingFee(dec("1500"), bands)
	require.NoError(t, err)
	assertMoney(t, "50", fee)
}

func TestDefaultBandsAreValid(t *testing.T) {
	assert.NoError(t, ValidateBands(DefaultBands(RoleInvestor)))
	assert.NoError(t, ValidateBands(DefaultBands(RoleStartup)))
	assert.Nil(t, DefaultBands("Advisor"))
}

func TestBandOverlaps(t *testing.T) {
	band := func(min, max string) Band {
		return Band{Min: dec(min), Max: dec(max), FeeType: FeePercentage, Value: dec("1")}
	}

	assert.False(t, band("0", "100").Overlaps(band("100", "200")), "adjacent half-open bands touch without overlap")
	assert.True(t, band("0", "150").Overlaps(band("100", "200")))
	assert.True(t, band("100", "0").Overlaps(band("5000", "6000")))
	assert.True(t, band("100", "0").Overlaps(band("200", "0")))
	assert.False(t, band("100", "0").Overlaps(band("0", "100")))
	assert.True(t, band("10", "20").Overlaps(band("0", "100")))
}

func TestValidateBands(t *testing.T) {
	ok := []Band{
		{Min: dec("0"), Max: dec("100"), FeeType: FeePercentage, Value: dec("2")},
		{Min: dec("100"), Max: dec("0"), FeeType: FeeFixed, Value: dec("5")},
	}
	assert.NoError(t, ValidateBands(ok))

	overlapping := append(ok, Band{Min: dec("50"), Max: dec("60"), FeeType: FeeFixed, Value: dec("1")})
	assert.ErrorIs(t, ValidateBands(overlapping), ErrOverlappingBands)

	inverted := []Band{{Min: dec("100"), Max: dec("50"), FeeType: FeeFixed, Value: dec("1")}}
	assert.ErrorIs(t, ValidateBands(inverted), ErrInvalidBand)

	tooHigh := []Band{{Min: dec("0"), Max: dec("0"), FeeType: FeePercentage, Value: dec("101")}}
	assert.ErrorIs(t, ValidateBands(tooHigh), ErrInvalidBand)

	badType := []Band{{Min: dec("0"), Max: dec("0"), FeeType: "tiered", Value: dec("1")}}
	assert.ErrorIs(t, ValidateBands(badType), xerrors.ErrValidation)
}

func TestSummarize(t *testing.T) {
	end1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end2 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	s := Summarize([]SummaryItem{
		{PlanID: 1, PlanName: "Starter", UnitPrice: dec("15"), StartupCount: 3, Currency: "USD", CurrentPeriodEnd: end1},
		{PlanID: 2, PlanName: "Growth", UnitPrice: dec("60"), StartupCount: 2, Currency: "USD", CurrentPeriodEnd: end2},
	})

	assertMoney(t, "165", s.TotalDue)
	assert.Equal(t, 2, s.TotalSubscriptions)
	require.Len(t, s.UpcomingPayments, 2)
	assert.Equal(t, "Starter", s.UpcomingPayments[0].PlanName)
	assertMoney(t, "45", s.UpcomingPayments[0].Amount)
	assert.Equal(t, end1, s.UpcomingPayments[0].DueDate)
	assert.Equal(t, "Growth", s.UpcomingPayments[1].PlanName)
	assertMoney(t, "120", s.UpcomingPayments[1].Amount)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.TotalDue.IsZero())
	assert.Equal(t, 0, s.TotalSubscriptions)
	assert.Empty(t, s.UpcomingPayments)
	assert.NotNil(t, s.UpcomingPayments)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(3600), ToMinorUnits(dec("36"), "usd"))
	assert.Equal(t, int64(1999), ToMinorUnits(dec("19.99"), "EUR"))
	assert.Equal(t, int64(1500), ToMinorUnits(dec("1500"), "JPY"))
	assertMoney(t, "19.99", FromMinorUnits(1999, "USD"))
	assertMoney(t, "1500", FromMinorUnits(1500, "KRW"))
}
