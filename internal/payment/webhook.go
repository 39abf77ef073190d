package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	xerrors "dealbridge-billing/internal/pkg/errors"
)

type EventType string

const (
	EventIntentSucceeded EventType = "payment_intent.succeeded"
	EventIntentFailed    EventType = "payment_intent.payment_failed"
	EventIntentCanceled  EventType = "payment_intent.canceled"
)

// WebhookEvent is the part of a provider event the billing flows act on.
type WebhookEvent struct {
	ID     string
	Type   EventType
	Intent *Intent
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Parse checks the signature header and decodes payment intent events.
// Other event types come back with a nil Intent.
func (v *WebhookVerifier) Parse(body []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(body, signature, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature: %v", xerrors.ErrUnauthorized, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: EventType(event.Type)}
	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment intent payload: %v", xerrors.ErrValidation, err)
		}
		out.Intent = toIntent(&pi)
	}
	return out, nil
}
