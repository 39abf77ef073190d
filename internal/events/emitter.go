package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Routing keys.
const (
	SubscriptionCreated       = "subscription.created"
	SubscriptionStatusChanged = "subscription.status_changed"
	CouponRedeemed            = "coupon.redeemed"
	DueDiligencePaid          = "due_diligence.paid"
)

type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Emitter serialises events and hands them to a Publisher. Publish
// failures are logged and swallowed; the database remains the source of
// truth.
type Emitter struct {
	pub    Publisher
	logger *zap.Logger
	now    func() time.Time
}

func NewEmitter(pub Publisher, logger *zap.Logger) *Emitter {
	return &Emitter{pub: pub, logger: logger, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, routingKey string, data any) {
	env := Envelope{
		ID:         ulid.Make().String(),
		Type:       routingKey,
		OccurredAt: e.now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		e.logger.Error("failed to encode event", zap.String("type", routingKey), zap.Error(err))
		return
	}
	if err := e.pub.Publish(ctx, routingKey, payload); err != nil {
		e.logger.Warn("event not published", zap.String("type", routingKey), zap.String("event_id", env.ID), zap.Error(err))
	}
}
