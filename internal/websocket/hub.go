// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	wstypes "dealbridge-billing/internal/domain/websocket"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/jwt"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type RevocationChecker interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	handlerRegistry *HandlerRegistry

	verifier  TokenVerifier
	blacklist RevocationChecker
	logger    *zap.Logger
}

type BroadcastMessage struct {
	UserIDs []string
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, blacklist RevocationChecker, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client, 64),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		verifier:        verifier,
		blacklist:       blacklist,
		logger:          logger,
	}
}

// AuthenticateClient validates the access token and checks it was not revoked.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := h.blacklist.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, xerrors.ErrTokenRevoked
	}

	return &ClientAuth{
		UserID:   claims.UserID(),
		TokenID:  claims.ID,
		UserType: claims.UserType,
		Roles:    claims.Roles,
		Email:    claims.Email,
	}, nil
}

func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches to a registered handler. Messages without
// one fall through to the client's built-in handling.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info("websocket client connected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":   client.userID,
		"user_type": client.userType,
		"channels":  []wstypes.ChannelType{wstypes.ChannelNotifications, wstypes.ChannelBilling},
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Info("websocket client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
		return
	}

	for _, userID := range msg.UserIDs {
		for client := range h.clients[userID] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

func (h *Hub) GetConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) BroadcastNotification(userID string, n *wstypes.NotificationData) {
	h.enqueue(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelNotifications,
		Message: wstypes.NewMessage(wstypes.EventTypeNotification, n),
	})
}

func (h *Hub) BroadcastNotificationCount(userID string, count int64) {
	h.enqueue(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelNotifications,
		Message: wstypes.NewMessage(wstypes.EventTypeNotificationCount, map[string]interface{}{
			"unread_count": count,
		}),
	})
}

func (h *Hub) BroadcastBillingUpdate(userID string, update *wstypes.BillingUpdate) {
	event := wstypes.EventTypeSubscriptionUpdate
	if update.Kind == wstypes.BillingKindDueDiligence {
		event = wstypes.EventTypeDueDiligenceUpdate
	}
	h.enqueue(&BroadcastMessage{
		UserIDs: []string{userID},
		Channel: wstypes.ChannelBilling,
		Message: wstypes.NewMessage(event, update),
	})
}

func (h *Hub) IsUserConnected(userID string) bool {
	return h.GetConnectedClients(userID) > 0
}

// enqueue never blocks the caller; pushes are best effort.
func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message",
			zap.String("type", string(msg.Message.Type)),
		)
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
