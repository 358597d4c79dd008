package persistence

import (
	"context"
	"time"

	"github.com/example/meetingroom/internal/booking"
)

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms. DeleteRoom removes the
// room together with every dependent meeting record in one transaction.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// MeetingFilter narrows meeting queries.
type MeetingFilter struct {
	RoomID        *string
	ParticipantID *string
	StartsBefore  *time.Time
	EndsAfter     *time.Time
	TitleQuery    string
	Statuses      []booking.Status
}

// MeetingRepository stores meetings and their attendees.
//
// CreateMeeting and UpdateMeeting run the room-overlap check and the write
// inside a single immediate transaction; they return ErrBookingConflict and
// perform no write when another active meeting occupies the window.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	UpdateMeeting(ctx context.Context, meeting Meeting, checkConflict bool) error
	UpdateMeetingStatus(ctx context.Context, id string, status booking.Status) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error

	// OverlappingRoomIDs returns the rooms with at least one active meeting
	// intersecting [from, to), optionally restricted to one room.
	OverlappingRoomIDs(ctx context.Context, from, to time.Time, roomID *string) ([]string, error)

	AddAttendee(ctx context.Context, attendee Attendee) error
	ListAttendees(ctx context.Context, meetingID string) ([]Attendee, error)
	UpdateAttendeeStatus(ctx context.Context, meetingID, userID, status string) error
	RemoveAttendee(ctx context.Context, meetingID, userID string) error
}

// MinuteRepository stores minutes and their action items.
type MinuteRepository interface {
	CreateMinute(ctx context.Context, minute Minute) error
	GetMinute(ctx context.Context, id string) (Minute, error)
	GetMinuteByMeeting(ctx context.Context, meetingID string) (Minute, error)
	UpdateMinute(ctx context.Context, minute Minute) error

	CreateActionItem(ctx context.Context, item ActionItem) error
	GetActionItem(ctx context.Context, id string) (ActionItem, error)
	UpdateActionItem(ctx context.Context, item ActionItem) error
	DeleteActionItem(ctx context.Context, id string) error
	ListActionItems(ctx context.Context, minuteID string) ([]ActionItem, error)
}

// AttachmentRepository stores uploaded files.
type AttachmentRepository interface {
	CreateAttachment(ctx context.Context, attachment Attachment) error
	GetAttachment(ctx context.Context, id string) (Attachment, error)
	ListAttachmentsForMeeting(ctx context.Context, meetingID string) ([]Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

// NotificationRepository stores per-account notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// RefreshTokenRepository stores rotatable refresh credentials.
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (RefreshToken, error)
	// RevokeRefreshToken marks the token revoked, recording the replacement
	// link when the revocation is part of a rotation.
	RevokeRefreshToken(ctx context.Context, token string, revokedAt time.Time, revokedByIP string, replacedBy *string) error
	DeleteExpiredRefreshTokens(ctx context.Context, reference time.Time) error
}

// AnalyticsRepository aggregates usage figures for administrators.
type AnalyticsRepository interface {
	CountMeetingsByStatus(ctx context.Context) (map[string]int, error)
	CountRows(ctx context.Context) (users, rooms, meetings int, err error)
	RoomUsage(ctx context.Context, from, to time.Time) ([]RoomUsage, error)
}
