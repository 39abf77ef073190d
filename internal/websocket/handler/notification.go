// internal/websocket/handler/notification.go
package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	wstypes "dealbridge-billing/internal/domain/websocket"
	ws "dealbridge-billing/internal/websocket"
)

type NotificationStore interface {
	MarkAsRead(ctx context.Context, id int64, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
}

type NotificationHandler struct {
	store  NotificationStore
	logger *zap.Logger
}

func NewNotificationHandler(store NotificationStore, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, logger: logger}
}

func (h *NotificationHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeNotificationRead,
		wstypes.EventTypeNotificationReadAll,
		wstypes.EventTypeNotificationCount,
	}
}

func (h *NotificationHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeNotificationRead:
		return h.handleMarkAsRead(ctx, client, msg)
	case wstypes.EventTypeNotificationReadAll:
		return h.handleMarkAllAsRead(ctx, client)
	case wstypes.EventTypeNotificationCount:
		return h.handleGetCount(ctx, client)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *NotificationHandler) handleMarkAsRead(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid mark as read request")
	}
	raw, ok := data["notification_id"].(float64)
	if !ok || raw <= 0 {
		return fmt.Errorf("notification_id is required")
	}
	id := int64(raw)

	if err := h.store.MarkAsRead(ctx, id, client.UserID()); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	count, err := h.store.GetUnreadCount(ctx, client.UserID())
	if err != nil {
		h.logger.Warn("failed to get unread count", zap.String("user_id", client.UserID()), zap.Error(err))
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeNotificationRead, map[string]interface{}{
		"notification_id": id,
		"unread_count":    count,
	}))
	return nil
}

func (h *NotificationHandler) handleMarkAllAsRead(ctx context.Context, client *ws.Client) error {
	updated, err := h.store.MarkAllAsRead(ctx, client.UserID())
	if err != nil {
		return fmt.Errorf("failed to mark all as read: %w", err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeNotificationReadAll, map[string]interface{}{
		"updated":      updated,
		"unread_count": 0,
	}))
	return nil
}

func (h *NotificationHandler) handleGetCount(ctx context.Context, client *ws.Client) error {
	count, err := h.store.GetUnreadCount(ctx, client.UserID())
	if err != nil {
		return fmt.Errorf("failed to get unread count: %w", err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeNotificationCount, map[string]interface{}{
		"unread_count": count,
	}))
	return nil
}
