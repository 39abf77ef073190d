package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	xerrors "dealbridge-billing/internal/pkg/errors"
)

var ErrInvalidQuantity = fmt.Errorf("%w: quantity must not be negative", xerrors.ErrValidation)

// SubscriptionPrice returns unitPrice × quantity with the discount applied.
// A zero quantity always costs zero.
func SubscriptionPrice(unitPrice decimal.Decimal, quantity int, d *Discount) (decimal.Decimal, error) {
	if quantity < 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if quantity == 0 {
		return decimal.Zero, nil
	}
	return ApplyDiscount(unitPrice.Mul(decimal.NewFromInt(int64(quantity))), d), nil
}
