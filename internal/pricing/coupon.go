package pricing

import "time"

// Coupon carries the fields that decide whether a coupon can be applied.
type Coupon struct {
	IsActive   bool
	ValidFrom  time.Time
	ValidUntil time.Time
	UsedCount  int
	MaxUses    int
}

// CouponUsable reports whether c may be applied at now. Both ends of the
// validity window are inclusive.
func CouponUsable(c Coupon, now time.Time) bool {
	switch {
	case !c.IsActive:
		return false
	case now.Before(c.ValidFrom):
		return false
	case now.After(c.ValidUntil):
		return false
	case c.UsedCount >= c.MaxUses:
		return false
	}
	return true
}
