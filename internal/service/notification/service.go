// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/notification"
	"dealbridge-billing/internal/domain/websocket"
	"dealbridge-billing/internal/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, n *notification.Notification) error
	GetUserNotifications(ctx context.Context, userID string, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error)
	MarkAsRead(ctx context.Context, id int64, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id int64, userID string) error
}

// Pusher delivers realtime updates to connected clients.
type Pusher interface {
	BroadcastNotification(userID string, n *websocket.NotificationData)
	BroadcastNotificationCount(userID string, count int64)
	BroadcastBillingUpdate(userID string, update *websocket.BillingUpdate)
}

type NotificationService struct {
	repo   Repository
	hub    Pusher
	logger *zap.Logger
}

func NewNotificationService(repo Repository, hub Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, hub: hub, logger: logger}
}

// CreateAndPush stores a notification and pushes it to the user's sockets.
func (s *NotificationService) CreateAndPush(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	if req.Type == "" {
		req.Type = notification.TypeInfo
	}
	n := &notification.Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Metadata: req.Metadata,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastNotification(n.UserID, &websocket.NotificationData{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			IsRead:    n.IsRead,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		})
	}
	return n, nil
}

// Notify is the fire-and-forget form used by billing flows; failures are
// only logged.
func (s *NotificationService) Notify(ctx context.Context, userID string, typ notification.NotificationType, title, message string, metadata map[string]interface{}) {
	_, err := s.CreateAndPush(ctx, &notification.CreateNotificationRequest{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     typ,
		Metadata: metadata,
	})
	if err != nil {
		s.logger.Warn("failed to notify user", zap.String("user_id", userID), zap.String("title", title), zap.Error(err))
	}
}

// PushBillingUpdate sends a state change on the billing channel.
func (s *NotificationService) PushBillingUpdate(userID string, update *websocket.BillingUpdate) {
	if s.hub != nil {
		s.hub.BroadcastBillingUpdate(userID, update)
	}
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string, filters *notification.NotificationListFilters) (*notification.NotificationListResponse, error) {
	items, total, err := s.repo.GetUserNotifications(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	unread, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &notification.NotificationListResponse{
		Notifications: items,
		Unread:        unread,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    pagination.TotalPages(total, filters.PageSize),
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id int64, userID string) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all as read: %w", err)
	}
	if s.hub != nil {
		s.hub.BroadcastNotificationCount(userID, 0)
	}
	return n, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id int64, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *NotificationService) pushCount(ctx context.Context, userID string) {
	if s.hub == nil {
		return
	}
	count, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to get unread count", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.hub.BroadcastNotificationCount(userID, count)
}
