package coupon_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealbridge-billing/internal/domain/coupon"
	"dealbridge-billing/internal/pricing"
)

func TestRemainingUses(t *testing.T) {
	assert.Equal(t, 7, (&coupon.DiscountCoupon{MaxUses: 10, UsedCount: 3}).RemainingUses())
	assert.Equal(t, 0, (&coupon.DiscountCoupon{MaxUses: 10, UsedCount: 10}).RemainingUses())
	assert.Equal(t, 0, (&coupon.DiscountCoupon{MaxUses: 2, UsedCount: 5}).RemainingUses())
}

func TestCouponJSONIncludesRemainingUses(t *testing.T) {
	c := coupon.DiscountCoupon{
		ID: 7, Code: "LAUNCH", DiscountType: pricing.DiscountFixed,
		DiscountValue: decimal.NewFromInt(25), MaxUses: 10, UsedCount: 4,
	}

	for name, v := range map[string]any{"value": c, "list": []coupon.DiscountCoupon{c}} {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"remaining_uses":6`)
			assert.Contains(t, string(raw), `"code":"LAUNCH"`)
			assert.Contains(t, string(raw), `"used_count":4`)
		})
	}
}
