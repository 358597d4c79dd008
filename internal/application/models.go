package application

import (
	"time"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	Name    string
	IsAdmin bool
}

// UserInput carries the editable account fields.
type UserInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update an existing user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// RegisterParams captures a self-service sign up.
type RegisterParams struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// UpdateProfileParams carries the fields an account may change about itself.
type UpdateProfileParams struct {
	Principal Principal
	Name      string
	Phone     string
	Password  string
}

// RoomInput carries the editable room fields.
type RoomInput struct {
	Name     string
	Capacity int
	Location string
	Features *string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// MeetingInput carries the editable booking fields.
type MeetingInput struct {
	RoomID string
	Title  string
	Agenda *string
	Start  time.Time
	End    time.Time
}

// CreateMeetingParams wraps the data required to book a meeting.
type CreateMeetingParams struct {
	Principal      Principal
	Input          MeetingInput
	AttendeeEmails []string
}

// UpdateMeetingParams wraps the data required to rebook or edit a meeting.
type UpdateMeetingParams struct {
	Principal Principal
	MeetingID string
	Input     MeetingInput
}

// SearchMeetingsParams describes a meeting listing query.
type SearchMeetingsParams struct {
	Principal     Principal
	RoomID        *string
	ParticipantID *string
	From          *time.Time
	To            *time.Time
	TitleQuery    string
	Statuses      []booking.Status
}

// RoomAvailability pairs a room with its Free/Busy state for a window.
type RoomAvailability struct {
	Room         persistence.Room
	Availability booking.Availability
}

// MinuteInput carries the editable minutes fields.
type MinuteInput struct {
	Notes      string
	Discussion string
	Decisions  string
}

// ActionItemInput carries the editable action item fields.
type ActionItemInput struct {
	Description   string
	AssigneeID    *string
	AssigneeLabel *string
	DueDate       *time.Time
	Status        string
}

// UploadAttachmentParams wraps an incoming file upload.
type UploadAttachmentParams struct {
	Principal   Principal
	MeetingID   *string
	MinuteID    *string
	FileName    string
	ContentType string
	Content     []byte
}

// LoginParams captures the data required to authenticate a user.
type LoginParams struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResult bundles the issued credentials with the authenticated account.
type LoginResult struct {
	User         persistence.User
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// RefreshParams captures the data required to rotate a refresh token. The
// expired access token proves which account the refresh token must belong to.
type RefreshParams struct {
	AccessToken  string
	RefreshToken string
	ClientIP     string
}

// AnalyticsSummary aggregates the dashboard counters.
type AnalyticsSummary struct {
	TotalUsers       int
	TotalRooms       int
	TotalMeetings    int
	MeetingsByStatus map[string]int
	RoomUsage        []persistence.RoomUsage
}
