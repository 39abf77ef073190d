// internal/websocket/client.go
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wstypes "dealbridge-billing/internal/domain/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type ClientAuth struct {
	UserID   string
	TokenID  string
	UserType string
	Roles    []string
	Email    string
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   string
	tokenID  string
	userType string
	roles    []string

	subscriptions map[wstypes.ChannelType]bool
	subMutex      sync.RWMutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewClient starts with both channels subscribed.
func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   auth.UserID,
		tokenID:  auth.TokenID,
		userType: auth.UserType,
		roles:    auth.Roles,
		subscriptions: map[wstypes.ChannelType]bool{
			wstypes.ChannelNotifications: true,
			wstypes.ChannelBilling:       true,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) Subscribe(channel wstypes.ChannelType) bool {
	if !channel.Valid() {
		return false
	}
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	c.subscriptions[channel] = true
	return true
}

func (c *Client) Unsubscribe(channel wstypes.ChannelType) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, channel)
}

func (c *Client) IsSubscribed(channel wstypes.ChannelType) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return c.subscriptions[channel]
}

func (c *Client) UserID() string { return c.userID }

// Start runs both pumps for the connection.
func (c *Client) Start() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump handles incoming messages from the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// WritePump handles outgoing messages to the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message")
		return
	}

	handled, err := c.hub.HandleClientMessage(c.ctx, c, msg)
	if err != nil {
		c.SendError("handler_error", err.Error())
		return
	}
	if handled {
		return
	}

	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeSubscribe, wstypes.EventTypeUnsubscribe:
		req, err := decodeData[wstypes.SubscribeRequest](msg.Data)
		if err != nil {
			c.SendError("invalid_subscribe", "Invalid subscribe request")
			return
		}
		status := "subscribed"
		for _, channel := range req.Channels {
			if msg.Type == wstypes.EventTypeUnsubscribe {
				c.Unsubscribe(channel)
				status = "unsubscribed"
			} else if !c.Subscribe(channel) {
				c.SendError("unknown_channel", "Unknown channel "+string(channel))
				return
			}
		}
		c.SendMessage(wstypes.NewMessage(msg.Type, map[string]interface{}{
			"channels": req.Channels,
			"status":   status,
		}))

	default:
		c.SendError("unsupported_event", "Unsupported event "+string(msg.Type))
	}
}

// SendMessage queues msg for the write pump. A client that cannot keep up
// is disconnected.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	select {
	case <-c.ctx.Done():
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket client too slow, disconnecting", zap.String("user_id", c.userID))
		select {
		case c.hub.unregister <- c:
		default:
			c.Close()
		}
	}
}

func (c *Client) SendError(code, message string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
	}))
}

// Close stops the pumps. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}
