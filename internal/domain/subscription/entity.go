// internal/domain/subscription/entity.go
package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"dealbridge-billing/internal/domain/plan"
	"dealbridge-billing/internal/pricing"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusCancelled Status = "cancelled"
	StatusPastDue   Status = "past_due"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCancelled, StatusPastDue:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusActive:   {StatusInactive, StatusCancelled, StatusPastDue},
	StatusInactive: {StatusActive, StatusCancelled},
	StatusPastDue:  {StatusActive, StatusCancelled},
}

// CanTransition reports whether a subscription may move from s to next.
// Cancelled is terminal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type UserSubscription struct {
	ID                    int64  `json:"id" db:"id"`
	SubscriptionReference string `json:"subscription_reference" db:"subscription_reference"`

	UserID string `json:"user_id" db:"user_id"`
	PlanID int64  `json:"plan_id" db:"plan_id"`

	Status             Status    `json:"status" db:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end" db:"current_period_end"`

	// Pricing
	StartupCount int             `json:"startup_count" db:"startup_count"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Currency     string          `json:"currency" db:"currency"`
	Interval     plan.Interval   `json:"interval" db:"interval"`

	// Discount snapshot taken at creation so quantity changes re-price consistently.
	CouponID      *int64                `json:"coupon_id,omitempty" db:"coupon_id"`
	DiscountType  *pricing.DiscountType `json:"discount_type,omitempty" db:"discount_type"`
	DiscountValue *decimal.Decimal      `json:"discount_value,omitempty" db:"discount_value"`

	PaymentIntentID *string    `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Discount returns the discount captured at creation, or nil.
func (s *UserSubscription) Discount() *pricing.Discount {
	if s.DiscountType == nil || s.DiscountValue == nil {
		return nil
	}
	return &pricing.Discount{Type: *s.DiscountType, Value: *s.DiscountValue}
}

// SubscriptionWithPlan joins a subscription with the plan fields the
// summary needs.
type SubscriptionWithPlan struct {
	UserSubscription
	PlanName  string          `json:"plan_name"`
	PlanPrice decimal.Decimal `json:"plan_price"`
}

type SubscriptionStats struct {
	TotalSubscriptions     int64           `json:"total_subscriptions"`
	ActiveSubscriptions    int64           `json:"active_subscriptions"`
	PastDueSubscriptions   int64           `json:"past_due_subscriptions"`
	CancelledSubscriptions int64           `json:"cancelled_subscriptions"`
	ActiveRevenue          decimal.Decimal `json:"active_revenue"`
}
