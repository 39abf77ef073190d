// internal/websocket/handler.go
package websocket

import (
	"context"
	"encoding/json"

	wstypes "dealbridge-billing/internal/domain/websocket"
)

// MessageHandler handles the client events of one domain. Events without a
// handler fall through to the client's built-in ping and subscribe handling.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry routes event types to handlers. The last handler
// registered for an event wins.
type HandlerRegistry struct {
	byEvent map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byEvent: make(map[wstypes.EventType]MessageHandler)}
}

func (r *HandlerRegistry) Register(h MessageHandler) {
	for _, ev := range h.SupportedEvents() {
		r.byEvent[ev] = h
	}
}

func (r *HandlerRegistry) GetHandler(ev wstypes.EventType) (MessageHandler, bool) {
	h, ok := r.byEvent[ev]
	return h, ok
}

// decodeData re-reads a message payload, which arrives as generic JSON,
// into T.
func decodeData[T any](data interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
