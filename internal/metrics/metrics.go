package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"interval"},
	)

	SubscriptionsPastDueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_subscriptions_past_due_total",
			Help: "Total number of subscriptions moved to past_due",
		},
	)

	CouponRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_coupon_redemptions_total",
			Help: "Coupon redemption attempts by result",
		},
		[]string{"result"},
	)

	PaymentIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_payment_intents_total",
			Help: "Payment intents created by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billing_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	EmailsQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_emails_total",
			Help: "Emails by outcome",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSubscription(interval string) {
	SubscriptionsCreatedTotal.WithLabelValues(interval).Inc()
}

func RecordPastDue(n int) {
	SubscriptionsPastDueTotal.Add(float64(n))
}

func RecordCouponRedemption(result string) {
	CouponRedemptionsTotal.WithLabelValues(result).Inc()
}

func RecordPaymentIntent(kind, outcome string) {
	PaymentIntentsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

func RecordEmail(status string) {
	EmailsQueuedTotal.WithLabelValues(status).Inc()
}
