package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"dealbridge-billing/internal/metrics"
	"dealbridge-billing/internal/pkg/breaker"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pricing"
)

// intentAPI is the subset of *paymentintent.Client in use.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeProvider struct {
	intents intentAPI
	cb      *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
	logger  *zap.Logger
}

func NewStripeProvider(secretKey string, cfg breaker.Config, logger *zap.Logger) *StripeProvider {
	sc := client.New(secretKey, nil)
	return newStripeProvider(sc.PaymentIntents, cfg, logger)
}

func newStripeProvider(api intentAPI, cfg breaker.Config, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		intents: api,
		cb:      breaker.New[*stripe.PaymentIntent]("stripe", cfg, logger, isClientError),
		logger:  logger,
	}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, in CreateIntentParams) (*Intent, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: intent amount must be positive", xerrors.ErrValidation)
	}

	currency := strings.ToLower(in.Currency)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(pricing.ToMinorUnits(in.Amount, in.Currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	params.SetIdempotencyKey(key)
	params.Context = ctx

	pi, err := p.cb.Execute(func() (*stripe.PaymentIntent, error) {
		return p.intents.New(params)
	})
	if err != nil {
		metrics.RecordPaymentIntent(in.Metadata[MetaKind], "error")
		p.logger.Error("failed to create payment intent",
			zap.String("kind", in.Metadata[MetaKind]),
			zap.String("amount", in.Amount.String()),
			zap.Error(err),
		)
		return nil, mapStripeError("stripe.create_intent", err)
	}

	metrics.RecordPaymentIntent(in.Metadata[MetaKind], "created")
	return toIntent(pi), nil
}

func (p *StripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.cb.Execute(func() (*stripe.PaymentIntent, error) {
		return p.intents.Get(id, params)
	})
	if err != nil {
		return nil, mapStripeError("stripe.get_intent", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	currency := strings.ToUpper(string(pi.Currency))
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		Amount:       pricing.FromMinorUnits(pi.Amount, currency),
		Currency:     currency,
		Metadata:     pi.Metadata,
	}
}

// isClientError reports failures caused by the request itself. These do
// not count against the breaker.
func isClientError(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != http.StatusTooManyRequests
}

func mapStripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch {
		case se.Code == stripe.ErrorCodeResourceMissing || se.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, xerrors.ErrNotFound)
		case isClientError(err):
			return fmt.Errorf("%s: %w: %s", op, xerrors.ErrValidation, se.Msg)
		}
	}
	return xerrors.Downstream(op, err)
}
