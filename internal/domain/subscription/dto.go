// internal/domain/subscription/dto.go
package subscription

import (
	"github.com/shopspring/decimal"
)

type CreateIntentRequest struct {
	PlanID       int64  `json:"plan_id" binding:"required"`
	StartupCount int    `json:"startup_count" binding:"required,min=1"`
	CouponCode   string `json:"coupon_code" binding:"omitempty,max=50"`
}

type IntentResponse struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

type ConfirmIntentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

type ChangeQuantityRequest struct {
	StartupCount int `json:"startup_count" binding:"gte=0"`
}

type ChangeStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=active inactive cancelled past_due"`
}

type SubscriptionListFilters struct {
	UserID   string  `form:"user_id"`
	PlanID   *int64  `form:"plan_id"`
	Status   *Status `form:"status" binding:"omitempty,oneof=active inactive cancelled past_due"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type SubscriptionListResponse struct {
	Subscriptions []UserSubscription `json:"subscriptions"`
	Total         int64              `json:"total"`
	Page          int                `json:"page"`
	PageSize      int                `json:"page_size"`
	TotalPages    int                `json:"total_pages"`
}
