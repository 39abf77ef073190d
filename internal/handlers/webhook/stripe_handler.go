// internal/handlers/webhook/stripe_handler.go
package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/duediligence"
	"dealbridge-billing/internal/domain/subscription"
	"dealbridge-billing/internal/metrics"
	"dealbridge-billing/internal/payment"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/response"
)

// Stripe caps webhook payloads well below this.
const maxBodyBytes = 64 << 10

type EventParser interface {
	Parse(body []byte, signature string) (*payment.WebhookEvent, error)
}

type SubscriptionConfirmer interface {
	ConfirmFromIntent(ctx context.Context, intent *payment.Intent) (*subscription.UserSubscription, error)
}

type DueDiligenceSettler interface {
	ConfirmFromIntent(ctx context.Context, intent *payment.Intent) (*duediligence.Request, error)
	FailFromIntent(ctx context.Context, intent *payment.Intent) (*duediligence.Request, error)
}

type StripeHandler struct {
	parser        EventParser
	subscriptions SubscriptionConfirmer
	dueDiligence  DueDiligenceSettler
	logger        *zap.Logger
}

func NewStripeHandler(parser EventParser, subscriptions SubscriptionConfirmer, dueDiligence DueDiligenceSettler, logger *zap.Logger) *StripeHandler {
	return &StripeHandler{
		parser:        parser,
		subscriptions: subscriptions,
		dueDiligence:  dueDiligence,
		logger:        logger,
	}
}

// Handle verifies the signature and applies payment intent events.
// Events that do not concern billing are acknowledged and ignored.
func (h *StripeHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		response.ValidationError(c, "failed to read body", err)
		return
	}

	event, err := h.parser.Parse(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("rejected webhook", zap.Error(err), zap.String("ip", c.ClientIP()))
		response.FromError(c, "invalid webhook", err)
		return
	}
	if event.Intent == nil {
		response.Success(c, http.StatusOK, "ignored", nil)
		return
	}

	ctx := c.Request.Context()
	intent := event.Intent
	log := h.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("payment_intent_id", intent.ID),
		zap.String("kind", intent.Kind()),
	)

	switch {
	case event.Type == payment.EventIntentSucceeded && intent.Kind() == payment.KindSubscription:
		_, err = h.subscriptions.ConfirmFromIntent(ctx, intent)
	case event.Type == payment.EventIntentSucceeded && intent.Kind() == payment.KindDueDiligence:
		_, err = h.dueDiligence.ConfirmFromIntent(ctx, intent)
	case event.Type == payment.EventIntentFailed || event.Type == payment.EventIntentCanceled:
		metrics.RecordPaymentIntent(intent.Kind(), "failed")
		if intent.Kind() == payment.KindDueDiligence {
			_, err = h.dueDiligence.FailFromIntent(ctx, intent)
		}
	default:
		log.Debug("webhook event ignored")
		response.Success(c, http.StatusOK, "ignored", nil)
		return
	}

	// Stripe retries non-2xx responses, so only transient failures are
	// reported as errors.
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) && !errors.Is(err, xerrors.ErrValidation) && !errors.Is(err, xerrors.ErrConflict) {
		log.Error("failed to apply webhook", zap.Error(err))
		response.FromError(c, "failed to apply webhook", err)
		return
	}
	if err != nil {
		log.Warn("webhook not applied", zap.Error(err))
	} else {
		log.Info("webhook applied")
	}
	response.Success(c, http.StatusOK, "processed", nil)
}
