package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"dealbridge-billing/internal/pkg/breaker"
	xerrors "dealbridge-billing/internal/pkg/errors"
)

type fakeIntents struct {
	created []*stripe.PaymentIntentParams
	newErr  error
	getErr  error
	byID    map[string]*stripe.PaymentIntent
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = append(f.created, params)
	if f.newErr != nil {
		return nil, f.newErr
	}
	return &stripe.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		Amount:       *params.Amount,
		Currency:     stripe.Currency(*params.Currency),
		Metadata:     params.Metadata,
	}, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	pi, ok := f.byID[id]
	if !ok {
		return nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing}
	}
	return pi, nil
}

func testConfig() breaker.Config {
	return breaker.Config{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2}
}

func TestCreateIntentConvertsToMinorUnits(t *testing.T) {
	api := &fakeIntents{}
	p := newStripeProvider(api, testConfig(), zap.NewNop())

	intent, err := p.CreateIntent(context.Background(), CreateIntentParams{
		Amount:   decimal.RequireFromString("199.99"),
		Currency: "USD",
		Metadata: map[string]string{MetaKind: KindSubscription, MetaPlanID: "7"},
	})
	require.NoError(t, err)

	require.Len(t, api.created, 1)
	assert.Equal(t, int64(19999), *api.created[0].Amount)
	assert.Equal(t, "usd", *api.created[0].Currency)
	assert.NotNil(t, api.created[0].IdempotencyKey)

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "USD", intent.Currency)
	assert.True(t, intent.Amount.Equal(decimal.RequireFromString("199.99")))
	assert.Equal(t, KindSubscription, intent.Kind())
}

func TestCreateIntentRejectsZeroAmount(t *testing.T) {
	api := &fakeIntents{}
	p := newStripeProvider(api, testConfig(), zap.NewNop())

	_, err := p.CreateIntent(context.Background(), CreateIntentParams{Amount: decimal.Zero, Currency: "USD"})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
	assert.Empty(t, api.created)
}

func TestCreateIntentDownstreamFailureOpensBreaker(t *testing.T) {
	api := &fakeIntents{newErr: errors.New("connection reset")}
	p := newStripeProvider(api, testConfig(), zap.NewNop())
	params := CreateIntentParams{Amount: decimal.NewFromInt(10), Currency: "USD"}

	for i := 0; i < 2; i++ {
		_, err := p.CreateIntent(context.Background(), params)
		assert.ErrorIs(t, err, xerrors.ErrDownstream)
	}

	_, err := p.CreateIntent(context.Background(), params)
	assert.ErrorIs(t, err, xerrors.ErrDownstream)
	assert.Len(t, api.created, 2, "open breaker must not reach the provider")
}

func TestCreateIntentCardErrorIsValidation(t *testing.T) {
	api := &fakeIntents{newErr: &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Msg: "amount too small"}}
	p := newStripeProvider(api, testConfig(), zap.NewNop())

	_, err := p.CreateIntent(context.Background(), CreateIntentParams{Amount: decimal.NewFromInt(1), Currency: "USD"})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
	assert.NotErrorIs(t, err, xerrors.ErrDownstream)
}

func TestGetIntent(t *testing.T) {
	api := &fakeIntents{byID: map[string]*stripe.PaymentIntent{
		"pi_ok": {ID: "pi_ok", Status: stripe.PaymentIntentStatusSucceeded, Amount: 5000, Currency: "usd"},
	}}
	p := newStripeProvider(api, testConfig(), zap.NewNop())

	intent, err := p.GetIntent(context.Background(), "pi_ok")
	require.NoError(t, err)
	assert.True(t, intent.Status.Succeeded())
	assert.True(t, intent.Amount.Equal(decimal.NewFromInt(50)))

	_, err = p.GetIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
