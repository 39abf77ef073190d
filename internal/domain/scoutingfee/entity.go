// internal/domain/scoutingfee/entity.go
package scoutingfee

import (
	"time"

	"github.com/shopspring/decimal"

	"dealbridge-billing/internal/pricing"
)

// Config overrides the default band schedule for one country and role.
// Configs are always created in investor/startup pairs sharing PairID.
type Config struct {
	ID        int64           `json:"id" db:"id"`
	PairID    string          `json:"pair_id" db:"pair_id"`
	Country   string          `json:"country" db:"country"`
	UserType  pricing.Role    `json:"user_type" db:"user_type"`
	MinAmount decimal.Decimal `json:"min_amount" db:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount" db:"max_amount"`
	FeeType   pricing.FeeType `json:"fee_type" db:"fee_type"`
	FeeValue  decimal.Decimal `json:"fee_value" db:"fee_value"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

func (c *Config) Band() pricing.Band {
	return pricing.Band{
		Min:     c.MinAmount,
		Max:     c.MaxAmount,
		FeeType: c.FeeType,
		Value:   c.FeeValue,
	}
}

type QuoteSource string

const (
	SourceConfigured QuoteSource = "configured"
	SourceDefault    QuoteSource = "default"
)

type Quote struct {
	Country  string           `json:"country"`
	UserType pricing.Role     `json:"user_type"`
	Amount   decimal.Decimal  `json:"amount"`
	Fee      decimal.Decimal  `json:"fee"`
	FeeType  pricing.FeeType  `json:"fee_type"`
	FeeValue decimal.Decimal  `json:"fee_value"`
	BandMin  decimal.Decimal  `json:"band_min"`
	BandMax  *decimal.Decimal `json:"band_max,omitempty"`
	Source   QuoteSource      `json:"source"`
	ConfigID *int64           `json:"config_id,omitempty"`
}
