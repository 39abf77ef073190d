// internal/domain/plan/dto.go
package plan

import (
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"gte=0"`
	Currency    string          `json:"currency" binding:"required,iso4217"`
	Interval    Interval        `json:"interval" binding:"required,oneof=monthly yearly"`
	UserType    UserType        `json:"user_type" binding:"required,oneof=Investor Startup Advisor"`
	Country     string          `json:"country" binding:"required,max=100"`
}

// UpdatePlanRequest leaves nil fields unchanged. Price, currency and
// interval cannot change while active subscriptions reference the plan.
type UpdatePlanRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	Currency    *string          `json:"currency" binding:"omitempty,iso4217"`
	Interval    *Interval        `json:"interval" binding:"omitempty,oneof=monthly yearly"`
}

type PlanListFilters struct {
	UserType *UserType `form:"user_type" binding:"omitempty,oneof=Investor Startup Advisor"`
	Country  string    `form:"country"`
	Interval *Interval `form:"interval" binding:"omitempty,oneof=monthly yearly"`
	IsActive *bool     `form:"is_active"`
	Search   string    `form:"search"`
	Page     int       `form:"page" binding:"omitempty,min=1"`
	PageSize int       `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type PlanListResponse struct {
	Plans      []SubscriptionPlan `json:"plans"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

type PriceQuoteRequest struct {
	StartupCount int    `json:"startup_count" binding:"gte=0"`
	CouponCode   string `json:"coupon_code" binding:"omitempty,max=50"`
}

type PriceQuote struct {
	PlanID         int64           `json:"plan_id"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	StartupCount   int             `json:"startup_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	CouponCode     string          `json:"coupon_code,omitempty"`
}
