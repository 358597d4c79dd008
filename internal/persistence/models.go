package persistence

import (
	"time"

	"github.com/example/meetingroom/internal/booking"
)

// Role names the two account roles the service distinguishes.
const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
)

// User represents an employee account.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable meeting room catalog entry.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Features  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meeting represents a booking of one room by one organizer for a time window.
type Meeting struct {
	ID          string
	RoomID      string
	OrganizerID string
	Title       string
	Agenda      *string
	Start       time.Time
	End         time.Time
	Status      booking.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attendee statuses.
const (
	AttendeeInvited  = "Invited"
	AttendeeAccepted = "Accepted"
	AttendeeDeclined = "Declined"
)

// Attendee links a meeting to an invited participant.
type Attendee struct {
	ID        string
	MeetingID string
	UserID    string
	Status    string
	CreatedAt time.Time
}

// Minute holds the single minutes record attached to a meeting.
type Minute struct {
	ID         string
	MeetingID  string
	CreatorID  string
	Notes      string
	Discussion string
	Decisions  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Action item statuses.
const (
	ActionPending    = "Pending"
	ActionInProgress = "InProgress"
	ActionDone       = "Done"
)

// ActionItem belongs to a minute and tracks a follow-up task.
type ActionItem struct {
	ID            string
	MinuteID      string
	Description   string
	AssigneeID    *string
	AssigneeLabel *string
	DueDate       *time.Time
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attachment stores an uploaded file attached to a meeting and/or minute.
type Attachment struct {
	ID          string
	MeetingID   *string
	MinuteID    *string
	FileName    string
	ContentType string
	Content     []byte
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   time.Time
}

// Notification types.
const (
	NotificationMeetingInvitation   = "MeetingInvitation"
	NotificationBookingConfirmation = "BookingConfirmation"
	NotificationActionItemAssigned  = "ActionItemAssigned"
	NotificationMeetingUpdated      = "MeetingUpdated"
	NotificationMeetingCancelled    = "MeetingCancelled"
	NotificationAnnouncement        = "Announcement"
)

// Notification is an in-app message delivered to one account.
type Notification struct {
	ID           string
	UserID       string
	Type         string
	Title        string
	Message      string
	Link         *string
	MeetingID    *string
	ActionItemID *string
	IsRead       bool
	CreatedAt    time.Time
}

// RefreshToken is an opaque rotatable credential persisted per account.
type RefreshToken struct {
	ID              string
	UserID          string
	Token           string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	CreatedByIP     string
	RevokedAt       *time.Time
	RevokedByIP     string
	ReplacedByToken *string
}

// RoomUsage aggregates booking load for one room inside a reporting window.
type RoomUsage struct {
	RoomID       string
	RoomName     string
	MeetingCount int
	BookedHours  float64
}
