// internal/handlers/notification/notification_handler.go
package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/domain/notification"
	"dealbridge-billing/internal/middleware"
	"dealbridge-billing/internal/pkg/response"
)

type NotificationService interface {
	GetUserNotifications(ctx context.Context, userID string, filters *notification.NotificationListFilters) (*notification.NotificationListResponse, error)
	MarkAsRead(ctx context.Context, id int64, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id int64, userID string) error
}

type NotificationHandler struct {
	notificationService NotificationService
}

func NewNotificationHandler(notificationService NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid notification ID", err)
		return 0, false
	}
	return id, true
}

// GetNotifications retrieves paginated notifications for the current user
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var filters notification.NotificationListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.notificationService.GetUserNotifications(c.Request.Context(), userID, &filters)
	if err != nil {
		response.FromError(c, "failed to get notifications", err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", result)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationService.GetUnreadCount(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to count notifications", err)
		return
	}
	response.Success(c, http.StatusOK, "unread count retrieved", gin.H{"unread_count": count})
}

// MarkAsRead marks a notification as read and returns the new unread count
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		response.FromError(c, "failed to mark as read", err)
		return
	}

	count, _ := h.notificationService.GetUnreadCount(c.Request.Context(), userID)
	response.Success(c, http.StatusOK, "notification marked as read", gin.H{
		"unread_count": count,
	})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	marked, err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to mark all as read", err)
		return
	}
	response.Success(c, http.StatusOK, "all notifications marked as read", gin.H{
		"marked_count": marked,
	})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), id, middleware.MustGetUserID(c)); err != nil {
		response.FromError(c, "failed to delete notification", err)
		return
	}
	response.Success(c, http.StatusOK, "notification deleted", nil)
}
