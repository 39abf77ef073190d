// Package pricing holds the pure money rules of the billing service: coupon
// usability, discounts, subscription pricing, scouting fees and subscription
// summaries. Nothing here touches persistence or the network.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	xerrors "dealbridge-billing/internal/pkg/errors"
)

// DiscountType is the kind of reduction a coupon grants.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

var hundred = decimal.NewFromInt(100)

var (
	ErrInvalidDiscountType  = fmt.Errorf("%w: discount type must be percentage or fixed", xerrors.ErrValidation)
	ErrInvalidDiscountValue = fmt.Errorf("%w: discount value out of range", xerrors.ErrValidation)
)

// Discount is a reduction applied to a base amount.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Validate checks that a percentage lies in [0,100] and a fixed amount is not negative.
func (d Discount) Validate() error {
	if !d.Type.Valid() {
		return ErrInvalidDiscountType
	}
	if d.Value.IsNegative() {
		return ErrInvalidDiscountValue
	}
	if d.Type == DiscountPercentage && d.Value.GreaterThan(hundred) {
		return ErrInvalidDiscountValue
	}
	return nil
}

// ApplyDiscount reduces base by d. A nil discount returns base unchanged.
// The result never drops below zero, whatever the discount type.
func ApplyDiscount(base decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return base.Round(2)
	}

	var out decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		out = base.Mul(decimal.NewFromInt(1).Sub(d.Value.Div(hundred)))
	case DiscountFixed:
		out = base.Sub(d.Value)
	default:
		out = base
	}

	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}

// DiscountAmount is the portion of base removed by d.
func DiscountAmount(base decimal.Decimal, d *Discount) decimal.Decimal {
	return base.Round(2).Sub(ApplyDiscount(base, d))
}
