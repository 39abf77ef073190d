// internal/domain/notification/entity.go
package notification

import (
	"time"
)

type NotificationType string

const (
	TypeSystem       NotificationType = "system"
	TypeAlert        NotificationType = "alert"
	TypeInfo         NotificationType = "info"
	TypeBilling      NotificationType = "billing"
	TypeDueDiligence NotificationType = "due_diligence"
)

type Notification struct {
	ID        int64                  `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	Title     string                 `json:"title" db:"title"`
	Message   string                 `json:"message" db:"message"`
	Type      NotificationType       `json:"type" db:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	IsRead    bool                   `json:"is_read" db:"is_read"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	ReadAt    *time.Time             `json:"read_at,omitempty" db:"read_at"`
}

// DTOs

type CreateNotificationRequest struct {
	UserID   string                 `json:"user_id" binding:"required"`
	Title    string                 `json:"title" binding:"required,max=255"`
	Message  string                 `json:"message" binding:"required"`
	Type     NotificationType       `json:"type"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type NotificationListFilters struct {
	IsRead   *bool             `form:"is_read"`
	Type     *NotificationType `form:"type"`
	Page     int               `form:"page" binding:"omitempty,min=1"`
	PageSize int               `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	Unread        int64          `json:"unread"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalPages    int            `json:"total_pages"`
}
