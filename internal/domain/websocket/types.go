// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// Client -> server
	EventTypeSubscribe           EventType = "subscribe"
	EventTypeUnsubscribe         EventType = "unsubscribe"
	EventTypeNotificationRead    EventType = "notification:read"
	EventTypeNotificationReadAll EventType = "notification:read_all"

	// Server -> client
	EventTypeNotification       EventType = "notification"
	EventTypeNotificationCount  EventType = "notification:count"
	EventTypeSubscriptionUpdate EventType = "billing:subscription"
	EventTypeDueDiligenceUpdate EventType = "billing:due_diligence"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

type ChannelType string

const (
	ChannelNotifications ChannelType = "notifications"
	ChannelBilling       ChannelType = "billing"
)

func (c ChannelType) Valid() bool {
	return c == ChannelNotifications || c == ChannelBilling
}

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type NotificationData struct {
	ID        int64                  `json:"id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	IsRead    bool                   `json:"is_read"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

const (
	BillingKindSubscription = "subscription"
	BillingKindDueDiligence = "due_diligence"
)

// BillingUpdate is pushed on the billing channel when a subscription or
// due-diligence request changes state.
type BillingUpdate struct {
	Kind      string `json:"kind"`
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
