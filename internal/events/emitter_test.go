package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	keys     []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, payload []byte) error {
	r.keys = append(r.keys, key)
	r.payloads = append(r.payloads, payload)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestEmitWrapsPayload(t *testing.T) {
	pub := &recordingPublisher{}
	em := NewEmitter(pub, zap.NewNop())

	em.Emit(context.Background(), CouponRedeemed, map[string]any{"coupon_id": 4})

	require.Len(t, pub.keys, 1)
	assert.Equal(t, CouponRedeemed, pub.keys[0])

	var env struct {
		ID   string         `json:"id"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Len(t, env.ID, 26)
	assert.Equal(t, CouponRedeemed, env.Type)
	assert.Equal(t, float64(4), env.Data["coupon_id"])
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	em := NewEmitter(pub, zap.NewNop())

	assert.NotPanics(t, func() {
		em.Emit(context.Background(), SubscriptionCreated, struct{}{})
	})
	assert.Len(t, pub.keys, 1)
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(zap.NewNop())
	assert.NoError(t, p.Publish(context.Background(), DueDiligencePaid, []byte("{}")))
	assert.NoError(t, p.Close())
}
