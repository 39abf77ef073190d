// internal/domain/duediligence/entity.go
package duediligence

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed},
	StatusFailed:  {StatusPaid},
	StatusPaid:    {StatusCompleted},
}

func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Fee is the due-diligence price charged in one country.
type Fee struct {
	ID        int64           `json:"id" db:"id"`
	Country   string          `json:"country" db:"country"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Currency  string          `json:"currency" db:"currency"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type Request struct {
	ID              int64           `json:"id" db:"id"`
	Reference       string          `json:"reference" db:"reference"`
	UserID          string          `json:"user_id" db:"user_id"`
	StartupID       string          `json:"startup_id" db:"startup_id"`
	Country         string          `json:"country" db:"country"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	Status          Status          `json:"status" db:"status"`
	PaymentIntentID *string         `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}
