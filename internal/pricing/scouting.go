package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	xerrors "dealbridge-billing/internal/pkg/errors"
)

// Role is the marketplace side a scouting fee is charged to.
type Role string

const (
	RoleInvestor Role = "Investor"
	RoleStartup  Role = "Startup"
)

func (r Role) Valid() bool {
	return r == RoleInvestor || r == RoleStartup
}

// FeeType selects how a band turns an amount into a fee.
type FeeType string

const (
	FeePercentage FeeType = "percentage"
	FeeFixed      FeeType = "fixed"
)

func (t FeeType) Valid() bool {
	return t == FeePercentage || t == FeeFixed
}

var (
	ErrInvalidBand      = fmt.Errorf("%w: invalid fee band", xerrors.ErrValidation)
	ErrOverlappingBands = fmt.Errorf("%w: fee bands overlap", xerrors.ErrValidation)
	ErrNoBand           = fmt.Errorf("%w: no fee band covers amount", xerrors.ErrValidation)
	ErrNegativeAmount   = fmt.Errorf("%w: amount must not be negative", xerrors.ErrValidation)
	ErrInvalidRole      = fmt.Errorf("%w: role must be Investor or Startup", xerrors.ErrValidation)
)

// AdvisorPartialRate is charged when exactly one party already belongs to the
// advisor's network.
var AdvisorPartialRate = decimal.RequireFromString("0.30")

// AdvisorScoutingFee applies the membership rule to an advisory fee.
func AdvisorScoutingFee(advisoryFee decimal.Decimal, investorInNetwork, startupInNetwork bool) decimal.Decimal {
	switch {
	case investorInNetwork && startupInNetwork:
		return decimal.Zero
	case investorInNetwork || startupInNetwork:
		return advisoryFee.Mul(AdvisorPartialRate).Round(2)
	default:
		return advisoryFee.Round(2)
	}
}

// Band is a half-open amount range [Min, Max) with its fee. Max of zero
// means the band has no upper bound.
type Band struct {
	Min     decimal.Decimal
	Max     decimal.Decimal
	FeeType FeeType
	Value   decimal.Decimal
}

func (b Band) Unbounded() bool {
	return b.Max.IsZero()
}

// Contains reports whether amount falls in [Min, Max).
func (b Band) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(b.Min) {
		return false
	}
	return b.Unbounded() || amount.LessThan(b.Max)
}

// Overlaps reports whether the two half-open ranges share any amount.
func (b Band) Overlaps(o Band) bool {
	bEndsAfterOStart := b.Unbounded() || b.Max.GreaterThan(o.Min)
	oEndsAfterBStart := o.Unbounded() || o.Max.GreaterThan(b.Min)
	return bEndsAfterOStart && oEndsAfterBStart
}

// Fee computes the fee this band charges on amount.
func (b Band) Fee(amount decimal.Decimal) decimal.Decimal {
	if b.FeeType == FeeFixed {
		return b.Value.Round(2)
	}
	return amount.Mul(b.Value).Div(hundred).Round(2)
}

// Validate checks a single band in isolation.
func (b Band) Validate() error {
	if !b.FeeType.Valid() {
		return fmt.Errorf("%w: fee type must be percentage or fixed", ErrInvalidBand)
	}
	if b.Min.IsNegative() || b.Max.IsNegative() || b.Value.IsNegative() {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidBand)
	}
	if !b.Unbounded() && !b.Max.GreaterThan(b.Min) {
		return fmt.Errorf("%w: max must exceed min", ErrInvalidBand)
	}
	if b.FeeType == FeePercentage && b.Value.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage above 100", ErrInvalidBand)
	}
	return nil
}

// ValidateBands validates every band and rejects any overlapping pair.
func ValidateBands(bands []Band) error {
	for i, b := range bands {
		if err := b.Validate(); err != nil {
			return err
		}
		for _, o := range bands[i+1:] {
			if b.Overlaps(o) {
				return ErrOverlappingBands
			}
		}
	}
	return nil
}

// SelectBand returns the first band containing amount.
func SelectBand(amount decimal.Decimal, bands []Band) (Band, bool) {
	for _, b := range bands {
		if b.Contains(amount) {
			return b, true
		}
	}
	return Band{}, false
}

// BandedScoutingFee picks the band for amount and returns the fee it charges.
func BandedScoutingFee(amount decimal.Decimal, bands []Band) (decimal.Decimal, Band, error) {
	if amount.IsNegative() {
		return decimal.Zero, Band{}, ErrNegativeAmount
	}
	b, ok := SelectBand(amount, bands)
	if !ok {
		return decimal.Zero, Band{}, ErrNoBand
	}
	return b.Fee(amount), b, nil
}

func pct(min, max int64, rate string) Band {
	return Band{
		Min:     decimal.NewFromInt(min),
		Max:     decimal.NewFromInt(max),
		FeeType: FeePercentage,
		Value:   decimal.RequireFromString(rate),
	}
}

// DefaultBands returns the built-in schedule for role. Investors are charged
// on the startup they scout and startups on the investor they scout.
func DefaultBands(role Role) []Band {
	switch role {
	case RoleInvestor:
		return []Band{
			pct(0, 100_000, "2.0"),
			pct(100_000, 500_000, "1.5"),
			pct(500_000, 1_000_000, "1.0"),
			pct(1_000_000, 0, "0.5"),
		}
	case RoleStartup:
		return []Band{
			pct(0, 100_000, "1.0"),
			pct(100_000, 500_000, "0.8"),
			pct(500_000, 1_000_000, "0.5"),
			pct(1_000_000, 0, "0.3"),
		}
	}
	return nil
}
