package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/meetingroom/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite.
type NotificationRepository struct {
	store *Store
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

// CreateNotification stores an in-app notification for one account.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" || notification.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO notifications (id, user_id, type, title, message, link, meeting_id, action_item_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		nullString(notification.Link),
		nullString(notification.MeetingID),
		nullString(notification.ActionItemID),
		boolToInt(notification.IsRead),
		fmtTime(notification.CreatedAt),
	)
	return mapError(err)
}

// ListNotifications returns an account's notifications, newest first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]persistence.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, link, meeting_id, action_item_id, is_read, created_at
		FROM notifications
		WHERE user_id = ?
	`
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.store.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var notification persistence.Notification
		var link, meetingID, actionItemID sql.NullString
		var isRead int
		var createdAt string
		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Type,
			&notification.Title,
			&notification.Message,
			&link,
			&meetingID,
			&actionItemID,
			&isRead,
			&createdAt,
		)
		if err != nil {
			return nil, mapError(err)
		}
		notification.Link = stringPtr(link)
		notification.MeetingID = stringPtr(meetingID)
		notification.ActionItemID = stringPtr(actionItemID)
		notification.IsRead = isRead != 0
		if notification.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for an account.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0", userID).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// MarkRead marks one notification as read. The user_id predicate keeps
// accounts from acknowledging each other's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// MarkAllRead marks every notification of an account as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.store.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID)
	return mapError(err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
