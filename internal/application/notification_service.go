package application

import (
	"context"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// NotificationService exposes each account's in-app notification feed.
type NotificationService struct {
	notifications persistence.NotificationRepository
	users         persistence.UserRepository
	idGenerator   func() string
	now           func() time.Time
}

// NewNotificationService wires dependencies for the notification service.
func NewNotificationService(notifications persistence.NotificationRepository, users persistence.UserRepository, idGenerator func() string, now func() time.Time) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		idGenerator:   idGenerator,
		now:           now,
	}
}

// List returns the principal's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal Principal, unreadOnly bool) ([]persistence.Notification, error) {
	return s.notifications.ListNotifications(ctx, principal.UserID, unreadOnly)
}

// UnreadCount returns the principal's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, principal Principal) (int, error) {
	return s.notifications.CountUnread(ctx, principal.UserID)
}

// MarkRead acknowledges one of the principal's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, notificationID, principal.UserID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// MarkAllRead acknowledges every notification of the principal.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal Principal) error {
	return s.notifications.MarkAllRead(ctx, principal.UserID)
}

// Announce lets an administrator push a manual notification to one account.
func (s *NotificationService) Announce(ctx context.Context, principal Principal, userID, title, message string) (persistence.Notification, error) {
	if !principal.IsAdmin {
		return persistence.Notification{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	title = strings.TrimSpace(title)
	if userID == "" {
		vErr.add("user_id", "user is required")
	}
	if title == "" {
		vErr.add("title", "title is required")
	}
	if vErr.HasErrors() {
		return persistence.Notification{}, vErr
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return persistence.Notification{}, mapRepositoryError(err)
	}

	notification := persistence.Notification{
		ID:        s.idGenerator(),
		UserID:    userID,
		Type:      persistence.NotificationAnnouncement,
		Title:     title,
		Message:   strings.TrimSpace(message),
		CreatedAt: s.now(),
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		return persistence.Notification{}, mapRepositoryError(err)
	}
	return notification, nil
}
