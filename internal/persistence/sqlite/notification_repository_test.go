package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

func setupNotificationRepositoryTest(t *testing.T) (*NotificationRepository, *Store) {
	t.Helper()

	store := setupStoreTest(t)
	seedUser(t, store, "user1")
	seedUser(t, store, "user2")
	return NewNotificationRepository(store), store
}

func newTestNotification(id, userID string, createdAt time.Time) persistence.Notification {
	return persistence.Notification{
		ID:        id,
		UserID:    userID,
		Type:      persistence.NotificationMeetingInvitation,
		Title:     "You were invited",
		Message:   "Sprint planning at 10:00",
		CreatedAt: createdAt,
	}
}

func TestNotificationRepository_ListNewestFirst(t *testing.T) {
	repo, _ := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"n1", "n2", "n3"} {
		if err := repo.CreateNotification(ctx, newTestNotification(id, "user1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("CreateNotification failed: %v", err)
		}
	}

	notifications, err := repo.ListNotifications(ctx, "user1", false)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifications) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(notifications))
	}
	if notifications[0].ID != "n3" || notifications[2].ID != "n1" {
		t.Errorf("Expected newest first, got [%s %s %s]", notifications[0].ID, notifications[1].ID, notifications[2].ID)
	}
}

func TestNotificationRepository_UnreadFlow(t *testing.T) {
	repo, _ := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.CreateNotification(ctx, newTestNotification("n1", "user1", now)); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}
	if err := repo.CreateNotification(ctx, newTestNotification("n2", "user1", now)); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	count, err := repo.CountUnread(ctx, "user1")
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 unread, got %d", count)
	}

	if err := repo.MarkRead(ctx, "n1", "user1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	unread, err := repo.ListNotifications(ctx, "user1", true)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "n2" {
		t.Errorf("Expected only n2 unread, got %v", unread)
	}

	if err := repo.MarkAllRead(ctx, "user1"); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	count, err = repo.CountUnread(ctx, "user1")
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 unread, got %d", count)
	}
}

func TestNotificationRepository_MarkRead_WrongUser(t *testing.T) {
	repo, _ := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	if err := repo.CreateNotification(ctx, newTestNotification("n1", "user1", time.Now().UTC())); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	if err := repo.MarkRead(ctx, "n1", "user2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for another account's notification, got %v", err)
	}
}
