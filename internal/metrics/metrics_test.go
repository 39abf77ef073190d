package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/api/v1/payments/intents", "201", 0.1)
	RecordHTTPRequest("POST", "/api/v1/payments/intents", "201", 0.2)
	RecordHTTPRequest("POST", "/api/v1/payments/intents", "400", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/payments/intents", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/payments/intents", "400")))
}

func TestRecordCouponRedemption(t *testing.T) {
	CouponRedemptionsTotal.Reset()

	RecordCouponRedemption("redeemed")
	RecordCouponRedemption("exhausted")
	RecordCouponRedemption("redeemed")

	assert.Equal(t, float64(2), testutil.ToFloat64(CouponRedemptionsTotal.WithLabelValues("redeemed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CouponRedemptionsTotal.WithLabelValues("exhausted")))
}

func TestRecordBreakerState(t *testing.T) {
	RecordBreakerState("stripe", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("stripe")))
}
