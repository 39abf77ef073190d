package webhook_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/duediligence"
	"dealbridge-billing/internal/domain/subscription"
	"dealbridge-billing/internal/handlers/webhook"
	"dealbridge-billing/internal/payment"
	xerrors "dealbridge-billing/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubParser struct {
	event *payment.WebhookEvent
	err   error
}

func (s stubParser) Parse([]byte, string) (*payment.WebhookEvent, error) { return s.event, s.err }

type mockSubs struct{ mock.Mock }

func (m *mockSubs) ConfirmFromIntent(_ context.Context, in *payment.Intent) (*subscription.UserSubscription, error) {
	args := m.Called(in.ID)
	return nil, args.Error(0)
}

type mockDD struct{ mock.Mock }

func (m *mockDD) ConfirmFromIntent(_ context.Context, in *payment.Intent) (*duediligence.Request, error) {
	args := m.MethodCalled("confirm", in.ID)
	return nil, args.Error(0)
}

func (m *mockDD) FailFromIntent(_ context.Context, in *payment.Intent) (*duediligence.Request, error) {
	args := m.MethodCalled("fail", in.ID)
	return nil, args.Error(0)
}

func serve(p stubParser, subs *mockSubs, dd *mockDD) *httptest.ResponseRecorder {
	h := webhook.NewStripeHandler(p, subs, dd, zap.NewNop())
	r := gin.New()
	r.POST("/webhooks/stripe", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func event(typ payment.EventType, kind string) *payment.WebhookEvent {
	return &payment.WebhookEvent{
		ID:   "evt_1",
		Type: typ,
		Intent: &payment.Intent{
			ID:       "pi_1",
			Status:   payment.IntentSucceeded,
			Metadata: map[string]string{payment.MetaKind: kind},
		},
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	w := serve(stubParser{err: xerrors.ErrUnauthorized}, &mockSubs{}, &mockDD{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRoutesByKind(t *testing.T) {
	subs, dd := &mockSubs{}, &mockDD{}
	subs.On("ConfirmFromIntent", "pi_1").Return(nil).Once()
	w := serve(stubParser{event: event(payment.EventIntentSucceeded, payment.KindSubscription)}, subs, dd)
	assert.Equal(t, http.StatusOK, w.Code)

	dd.On("confirm", "pi_1").Return(nil).Once()
	w = serve(stubParser{event: event(payment.EventIntentSucceeded, payment.KindDueDiligence)}, subs, dd)
	assert.Equal(t, http.StatusOK, w.Code)

	dd.On("fail", "pi_1").Return(nil).Once()
	w = serve(stubParser{event: event(payment.EventIntentFailed, payment.KindDueDiligence)}, subs, dd)
	assert.Equal(t, http.StatusOK, w.Code)

	subs.AssertExpectations(t)
	dd.AssertExpectations(t)
}

func TestWebhookIgnoresUnrelatedEvents(t *testing.T) {
	subs, dd := &mockSubs{}, &mockDD{}

	w := serve(stubParser{event: &payment.WebhookEvent{ID: "evt_2", Type: "customer.created"}}, subs, dd)
	assert.Equal(t, http.StatusOK, w.Code)

	// Failed subscription payments leave nothing to undo.
	w = serve(stubParser{event: event(payment.EventIntentFailed, payment.KindSubscription)}, subs, dd)
	assert.Equal(t, http.StatusOK, w.Code)

	subs.AssertNotCalled(t, "ConfirmFromIntent", mock.Anything)
	dd.AssertNotCalled(t, "fail", mock.Anything)
}

func TestWebhookStatusReflectsFailureKind(t *testing.T) {
	subs := &mockSubs{}
	subs.On("ConfirmFromIntent", "pi_1").Return(xerrors.ErrNotFound).Once()
	w := serve(stubParser{event: event(payment.EventIntentSucceeded, payment.KindSubscription)}, subs, &mockDD{})
	assert.Equal(t, http.StatusOK, w.Code)

	subs.On("ConfirmFromIntent", "pi_1").Return(xerrors.Downstream("postgres", assert.AnError)).Once()
	w = serve(stubParser{event: event(payment.EventIntentSucceeded, payment.KindSubscription)}, subs, &mockDD{})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
