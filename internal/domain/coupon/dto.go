// internal/domain/coupon/dto.go
package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	"dealbridge-billing/internal/pricing"
)

type CreateCouponRequest struct {
	Code            string               `json:"code" binding:"required,coupon_code"`
	DiscountType    pricing.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue   decimal.Decimal      `json:"discount_value" binding:"gt=0"`
	MaxUses         int                  `json:"max_uses" binding:"required,min=1"`
	ValidFrom       time.Time            `json:"valid_from" binding:"required"`
	ValidUntil      time.Time            `json:"valid_until" binding:"required"`
	ApplicablePlans []int64              `json:"applicable_plans"`
}

type UpdateCouponRequest struct {
	DiscountValue   *decimal.Decimal `json:"discount_value" binding:"omitempty,gt=0"`
	MaxUses         *int             `json:"max_uses" binding:"omitempty,min=1"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidUntil      *time.Time       `json:"valid_until"`
	ApplicablePlans []int64          `json:"applicable_plans"`
}

type CouponListFilters struct {
	DiscountType *pricing.DiscountType `form:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	IsActive     *bool                 `form:"is_active"`
	Search       string                `form:"search"`
	Page         int                   `form:"page" binding:"omitempty,min=1"`
	PageSize     int                   `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type CouponListResponse struct {
	Coupons    []DiscountCoupon `json:"coupons"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type ValidateCouponRequest struct {
	Code   string `json:"code" binding:"required,max=50"`
	PlanID int64  `json:"plan_id" binding:"required"`
}

type ValidateCouponResponse struct {
	Valid          bool                 `json:"valid"`
	Code           string               `json:"code"`
	DiscountType   pricing.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal      `json:"discount_value"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	FinalPrice     decimal.Decimal      `json:"final_price"`
	RemainingUses  int                  `json:"remaining_uses"`
}
