// internal/domain/duediligence/dto.go
package duediligence

import (
	"github.com/shopspring/decimal"
)

type UpsertFeeRequest struct {
	Country  string          `json:"country" binding:"required,max=100"`
	Amount   decimal.Decimal `json:"amount" binding:"gt=0"`
	Currency string          `json:"currency" binding:"required,iso4217"`
	IsActive *bool           `json:"is_active"`
}

type CreateRequest struct {
	StartupID string `json:"startup_id" binding:"required,max=64"`
	Country   string `json:"country" binding:"required,max=100"`
}

type PaymentResponse struct {
	Request         *Request `json:"request"`
	PaymentIntentID string   `json:"payment_intent_id"`
	ClientSecret    string   `json:"client_secret"`
}

type ListFilters struct {
	UserID   string  `form:"user_id"`
	Status   *Status `form:"status" binding:"omitempty,oneof=pending paid completed failed"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ListResponse struct {
	Requests   []Request `json:"requests"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
