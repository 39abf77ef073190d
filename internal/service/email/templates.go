// internal/service/email/templates.go
package email

import (
	"fmt"
	"html"
	"time"

	"github.com/shopspring/decimal"
)

func SubscriptionReceipt(planName, reference string, amount decimal.Decimal, currency string, periodEnd time.Time) (subject, body string) {
	subject = "Your subscription is active"
	body = fmt.Sprintf(`<p>Thank you for subscribing to <strong>%s</strong>.</p>
<p>Reference: %s<br/>Amount paid: %s %s<br/>Renews on: %s</p>`,
		html.EscapeString(planName), html.EscapeString(reference),
		amount.StringFixed(2), html.EscapeString(currency), periodEnd.Format("2 Jan 2006"))
	return subject, body
}

func DueDiligenceReceipt(reference string, amount decimal.Decimal, currency string) (subject, body string) {
	subject = "Due diligence payment received"
	body = fmt.Sprintf(`<p>We received %s %s for due diligence request %s.</p>
<p>You will be notified when the report is complete.</p>`,
		amount.StringFixed(2), html.EscapeString(currency), html.EscapeString(reference))
	return subject, body
}
