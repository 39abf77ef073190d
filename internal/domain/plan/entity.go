// internal/domain/plan/entity.go
package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

func (i Interval) Valid() bool {
	return i == IntervalMonthly || i == IntervalYearly
}

// PeriodEnd returns the end of a billing period starting at start.
func (i Interval) PeriodEnd(start time.Time) time.Time {
	if i == IntervalYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

type UserType string

const (
	UserTypeInvestor UserType = "Investor"
	UserTypeStartup  UserType = "Startup"
	UserTypeAdvisor  UserType = "Advisor"
)

func (u UserType) Valid() bool {
	return u == UserTypeInvestor || u == UserTypeStartup || u == UserTypeAdvisor
}

type SubscriptionPlan struct {
	ID          int64   `json:"id" db:"id"`
	PlanCode    string  `json:"plan_code" db:"plan_code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`

	// Pricing
	Price    decimal.Decimal `json:"price" db:"price"`
	Currency string          `json:"currency" db:"currency"`
	Interval Interval        `json:"interval" db:"interval"`

	// Audience
	UserType UserType `json:"user_type" db:"user_type"`
	Country  string   `json:"country" db:"country"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PlanStats struct {
	TotalPlans          int64 `json:"total_plans"`
	ActivePlans         int64 `json:"active_plans"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
}
