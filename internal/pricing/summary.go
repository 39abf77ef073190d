package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryItem is one subscription as seen by the summary.
type SummaryItem struct {
	PlanID           int64
	PlanName         string
	UnitPrice        decimal.Decimal
	StartupCount     int
	Currency         string
	CurrentPeriodEnd time.Time
}

type UpcomingPayment struct {
	PlanID   int64           `json:"plan_id"`
	PlanName string          `json:"plan_name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	DueDate  time.Time       `json:"due_date"`
}

type Summary struct {
	TotalDue           decimal.Decimal   `json:"total_due"`
	TotalSubscriptions int               `json:"total_subscriptions"`
	UpcomingPayments   []UpcomingPayment `json:"upcoming_payments"`
}

// Summarize totals unit price × startup count over items and lists one
// upcoming payment per item, keeping the input order.
func Summarize(items []SummaryItem) Summary {
	out := Summary{
		TotalDue:           decimal.Zero,
		TotalSubscriptions: len(items),
		UpcomingPayments:   make([]UpcomingPayment, 0, len(items)),
	}
	for _, it := range items {
		line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.StartupCount))).Round(2)
		out.TotalDue = out.TotalDue.Add(line)
		out.UpcomingPayments = append(out.UpcomingPayments, UpcomingPayment{
			PlanID:   it.PlanID,
			PlanName: it.PlanName,
			Amount:   line,
			Currency: it.Currency,
			DueDate:  it.CurrentPeriodEnd,
		})
	}
	return out
}
