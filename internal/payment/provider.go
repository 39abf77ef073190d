// Package payment talks to the card processor that collects subscription
// and due-diligence payments.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentCanceled              IntentStatus = "canceled"
	IntentSucceeded             IntentStatus = "succeeded"
)

func (s IntentStatus) Succeeded() bool { return s == IntentSucceeded }

// Metadata keys attached to every intent so webhooks can be routed back.
const (
	MetaKind          = "kind"
	MetaUserID        = "user_id"
	MetaEmail         = "email"
	MetaPlanID        = "plan_id"
	MetaStartupCount  = "startup_count"
	MetaCouponID      = "coupon_id"
	MetaDiscountType  = "discount_type"
	MetaDiscountValue = "discount_value"
	MetaReference     = "reference"
)

// Intent kinds.
const (
	KindSubscription = "subscription"
	KindDueDiligence = "due_diligence"
)

type CreateIntentParams struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       decimal.Decimal
	Currency     string
	Metadata     map[string]string
}

func (i *Intent) Kind() string {
	return i.Metadata[MetaKind]
}

type Provider interface {
	CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
