// internal/repository/postgres/notification_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"dealbridge-billing/internal/domain/notification"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, type, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	metadataJSON := []byte("{}")
	if n.Metadata != nil {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = b
	}

	if err := r.db.QueryRow(ctx, query, n.UserID, n.Title, n.Message, n.Type, metadataJSON).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetUserNotifications retrieves notifications for a user with filters
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, userID string, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argPos := 2

	if filters.IsRead != nil {
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", argPos))
		args = append(args, *filters.IsRead)
		argPos++
	}
	if filters.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *filters.Type)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	offset := pagination.Normalize(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT id, user_id, title, message, type, metadata, is_read, created_at, read_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		var metadataJSON []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &metadataJSON, &n.IsRead, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, total, nil
}

// MarkAsRead marks one of the user's notifications as read
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id int64, userID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND user_id = $2 AND NOT is_read`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the user as read
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND NOT is_read`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetUnreadCount counts the user's unread notifications
func (r *NotificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// Delete removes one of the user's notifications
func (r *NotificationRepository) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
