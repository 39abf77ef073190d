// internal/domain/scoutingfee/dto.go
package scoutingfee

import (
	"github.com/shopspring/decimal"

	"dealbridge-billing/internal/pricing"
)

type BandInput struct {
	MinAmount decimal.Decimal `json:"min_amount" binding:"gte=0"`
	MaxAmount decimal.Decimal `json:"max_amount" binding:"gte=0"` // 0 = unbounded
	FeeType   pricing.FeeType `json:"fee_type" binding:"required,oneof=percentage fixed"`
	FeeValue  decimal.Decimal `json:"fee_value" binding:"gte=0"`
}

func (b BandInput) Band() pricing.Band {
	return pricing.Band{Min: b.MinAmount, Max: b.MaxAmount, FeeType: b.FeeType, Value: b.FeeValue}
}

// CreatePairRequest creates the investor and startup sides together.
type CreatePairRequest struct {
	Country  string    `json:"country" binding:"required,max=100"`
	Investor BandInput `json:"investor"`
	Startup  BandInput `json:"startup"`
}

type Pair struct {
	PairID   string `json:"pair_id"`
	Investor Config `json:"investor"`
	Startup  Config `json:"startup"`
}

type ListFilters struct {
	Country  string        `form:"country"`
	UserType *pricing.Role `form:"user_type" binding:"omitempty,oneof=Investor Startup"`
	IsActive *bool         `form:"is_active"`
}

type QuoteRequest struct {
	Country  string          `json:"country" binding:"required"`
	UserType pricing.Role    `json:"user_type" binding:"required,oneof=Investor Startup"`
	Amount   decimal.Decimal `json:"amount" binding:"gte=0"`
}

type AdvisorQuoteRequest struct {
	AdvisoryFee       decimal.Decimal `json:"advisory_fee" binding:"gte=0"`
	InvestorInNetwork bool            `json:"investor_in_network"`
	StartupInNetwork  bool            `json:"startup_in_network"`
}

type AdvisorQuote struct {
	AdvisoryFee decimal.Decimal `json:"advisory_fee"`
	Fee         decimal.Decimal `json:"fee"`
}
