package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	countryHandler "dealbridge-billing/internal/handlers/country"
	couponHandler "dealbridge-billing/internal/handlers/coupon"
	ddHandler "dealbridge-billing/internal/handlers/duediligence"
	notifyHandler "dealbridge-billing/internal/handlers/notification"
	planHandler "dealbridge-billing/internal/handlers/plan"
	scoutingHandler "dealbridge-billing/internal/handlers/scoutingfee"
	subscriptionHandler "dealbridge-billing/internal/handlers/subscription"
	webhookHandler "dealbridge-billing/internal/handlers/webhook"
	wsHandler "dealbridge-billing/internal/handlers/websocket"
	"dealbridge-billing/internal/middleware"
	"dealbridge-billing/internal/payment"
)

// newTestRouter wires handlers without services. Only requests rejected
// before reaching a service are safe to send.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRouter(r, &Handlers{
		NotifHandler:        notifyHandler.NewNotificationHandler(nil),
		PlanHandler:         planHandler.NewPlanHandler(nil),
		CouponHandler:       couponHandler.NewCouponHandler(nil),
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(nil),
		ScoutingFeeHandler:  scoutingHandler.NewScoutingFeeHandler(nil),
		DueDiligenceHandler: ddHandler.NewDueDiligenceHandler(nil),
		CountryHandler:      countryHandler.NewCountryHandler(nil),
		StripeHandler:       webhookHandler.NewStripeHandler(payment.NewWebhookVerifier("whsec_test"), nil, nil, zap.NewNop()),
		WSHandler:           wsHandler.NewWebSocketHandler(nil, []string{"*"}, zap.NewNop()),
		AuthMiddleware:      middleware.NewAuthMiddleware(nil, nil, zap.NewNop()),
	})
	return r
}

func TestRoutesRegistered(t *testing.T) {
	routes := map[string]bool{}
	for _, rt := range newTestRouter().Routes() {
		routes[rt.Method+" "+rt.Path] = true
	}

	for _, want := range []string{
		"GET /metrics",
		"GET /ws",
		"POST /webhooks/stripe",
		"GET /api/v1/health",
		"GET /api/v1/countries",
		"POST /api/v1/plans/:id/quote",
		"POST /api/v1/coupons/validate",
		"POST /api/v1/subscriptions/intent",
		"GET /api/v1/subscriptions/summary",
		"PATCH /api/v1/subscriptions/:id/quantity",
		"POST /api/v1/scouting-fees/quote",
		"POST /api/v1/scouting-fees/advisor-quote",
		"POST /api/v1/due-diligence/:id/pay",
		"POST /api/v1/admin/scouting-fees",
		"PUT /api/v1/admin/subscriptions/:id/status",
		"PUT /api/v1/admin/due-diligence/fees",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/subscriptions", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/scouting-fees/quote", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/plans", http.StatusUnauthorized},
		{http.MethodGet, "/ws", http.StatusUnauthorized},
		{http.MethodPost, "/webhooks/stripe", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		assert.Equal(t, tc.want, w.Code, tc.method+" "+tc.path)
	}
}
