// internal/domain/coupon/entity.go
package coupon

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"dealbridge-billing/internal/pricing"
)

type DiscountCoupon struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`

	// Discount
	DiscountType  pricing.DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue decimal.Decimal      `json:"discount_value" db:"discount_value"`

	// Usage
	MaxUses   int `json:"max_uses" db:"max_uses"`
	UsedCount int `json:"used_count" db:"used_count"`

	// Validity
	ValidFrom  time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil time.Time `json:"valid_until" db:"valid_until"`
	IsActive   bool      `json:"is_active" db:"is_active"`

	// Empty means every plan.
	ApplicablePlans pq.Int64Array `json:"applicable_plans,omitempty" db:"applicable_plans"`

	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Usable reports whether the coupon may be applied at now.
func (c *DiscountCoupon) Usable(now time.Time) bool {
	return pricing.CouponUsable(pricing.Coupon{
		IsActive:   c.IsActive,
		ValidFrom:  c.ValidFrom,
		ValidUntil: c.ValidUntil,
		UsedCount:  c.UsedCount,
		MaxUses:    c.MaxUses,
	}, now)
}

// AppliesTo reports whether the coupon is valid for planID.
func (c *DiscountCoupon) AppliesTo(planID int64) bool {
	if len(c.ApplicablePlans) == 0 {
		return true
	}
	for _, id := range c.ApplicablePlans {
		if id == planID {
			return true
		}
	}
	return false
}

func (c *DiscountCoupon) Discount() *pricing.Discount {
	return &pricing.Discount{Type: c.DiscountType, Value: c.DiscountValue}
}

func (c *DiscountCoupon) RemainingUses() int {
	if c.UsedCount >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.UsedCount
}

// MarshalJSON adds the derived remaining_uses field.
func (c DiscountCoupon) MarshalJSON() ([]byte, error) {
	type plain DiscountCoupon
	return json.Marshal(struct {
		plain
		RemainingUses int `json:"remaining_uses"`
	}{plain(c), c.RemainingUses()})
}

type CouponStats struct {
	TotalCoupons     int64 `json:"total_coupons"`
	ActiveCoupons    int64 `json:"active_coupons"`
	ExpiredCoupons   int64 `json:"expired_coupons"`
	ExhaustedCoupons int64 `json:"exhausted_coupons"`
	TotalRedemptions int64 `json:"total_redemptions"`
}
