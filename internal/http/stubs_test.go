package http

import (
	"context"
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
)

// The stubs below return canned values so routing and serialization can be
// exercised without real services. Set err to force the error path.

type authServiceStub struct {
	result application.LoginResult
	err    error
}

func (s *authServiceStub) Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error) {
	return s.result, s.err
}

func (s *authServiceStub) Refresh(ctx context.Context, params application.RefreshParams) (application.LoginResult, error) {
	return s.result, s.err
}

func (s *authServiceStub) Logout(ctx context.Context, refreshToken, clientIP string) error {
	return s.err
}

type userServiceStub struct {
	user persistence.User
	err  error
}

func (s *userServiceStub) Register(ctx context.Context, params application.RegisterParams) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) CreateUser(ctx context.Context, params application.CreateUserParams) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) UpdateUser(ctx context.Context, params application.UpdateUserParams) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) UpdateProfile(ctx context.Context, params application.UpdateProfileParams) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) GetUser(ctx context.Context, principal application.Principal, userID string) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]persistence.User, error) {
	return []persistence.User{s.user}, s.err
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	return s.err
}

type roomServiceStub struct {
	room persistence.Room
	err  error
}

func (s *roomServiceStub) CreateRoom(ctx context.Context, params application.CreateRoomParams) (persistence.Room, error) {
	return s.room, s.err
}

func (s *roomServiceStub) UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (persistence.Room, error) {
	return s.room, s.err
}

func (s *roomServiceStub) GetRoom(ctx context.Context, roomID string) (persistence.Room, error) {
	return s.room, s.err
}

func (s *roomServiceStub) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	return []persistence.Room{s.room}, s.err
}

func (s *roomServiceStub) DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error {
	return s.err
}

type availabilityStub struct {
	entries []application.RoomAvailability
	err     error
}

func (s *availabilityStub) Availability(ctx context.Context, from, to time.Time, roomID *string) ([]application.RoomAvailability, error) {
	return s.entries, s.err
}

type meetingServiceStub struct {
	meeting persistence.Meeting
	skipped []string
	err     error
}

func (s *meetingServiceStub) CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (persistence.Meeting, []string, error) {
	return s.meeting, s.skipped, s.err
}

func (s *meetingServiceStub) UpdateMeeting(ctx context.Context, params application.UpdateMeetingParams) (persistence.Meeting, error) {
	return s.meeting, s.err
}

func (s *meetingServiceStub) GetMeeting(ctx context.Context, meetingID string) (persistence.Meeting, error) {
	return s.meeting, s.err
}

func (s *meetingServiceStub) DeleteMeeting(ctx context.Context, principal application.Principal, meetingID string) error {
	return s.err
}

func (s *meetingServiceStub) MyMeetings(ctx context.Context, principal application.Principal) ([]persistence.Meeting, error) {
	return []persistence.Meeting{s.meeting}, s.err
}

func (s *meetingServiceStub) Search(ctx context.Context, params application.SearchMeetingsParams) ([]persistence.Meeting, error) {
	return []persistence.Meeting{s.meeting}, s.err
}

func (s *meetingServiceStub) Start(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error) {
	return s.meeting, s.err
}

func (s *meetingServiceStub) End(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error) {
	return s.meeting, s.err
}

func (s *meetingServiceStub) Cancel(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error) {
	return s.meeting, s.err
}

func (s *meetingServiceStub) Invite(ctx context.Context, principal application.Principal, meetingID string, emails []string) ([]string, error) {
	return s.skipped, s.err
}

func (s *meetingServiceStub) ListAttendees(ctx context.Context, meetingID string) ([]persistence.Attendee, error) {
	return nil, s.err
}

func (s *meetingServiceStub) Respond(ctx context.Context, principal application.Principal, meetingID, status string) error {
	return s.err
}

func (s *meetingServiceStub) RemoveAttendee(ctx context.Context, principal application.Principal, meetingID, userID string) error {
	return s.err
}

type minuteServiceStub struct {
	minute persistence.Minute
	item   persistence.ActionItem
	err    error
}

func (s *minuteServiceStub) CreateMinutes(ctx context.Context, principal application.Principal, meetingID string, input application.MinuteInput) (persistence.Minute, error) {
	return s.minute, s.err
}

func (s *minuteServiceStub) GetMinutes(ctx context.Context, meetingID string) (persistence.Minute, error) {
	return s.minute, s.err
}

func (s *minuteServiceStub) GetMinute(ctx context.Context, minuteID string) (persistence.Minute, error) {
	return s.minute, s.err
}

func (s *minuteServiceStub) UpdateMinutes(ctx context.Context, principal application.Principal, minuteID string, input application.MinuteInput) (persistence.Minute, error) {
	return s.minute, s.err
}

func (s *minuteServiceStub) AddActionItem(ctx context.Context, principal application.Principal, minuteID string, input application.ActionItemInput) (persistence.ActionItem, error) {
	return s.item, s.err
}

func (s *minuteServiceStub) UpdateActionItem(ctx context.Context, principal application.Principal, itemID string, input application.ActionItemInput) (persistence.ActionItem, error) {
	return s.item, s.err
}

func (s *minuteServiceStub) DeleteActionItem(ctx context.Context, principal application.Principal, itemID string) error {
	return s.err
}

func (s *minuteServiceStub) ListActionItems(ctx context.Context, minuteID string) ([]persistence.ActionItem, error) {
	return []persistence.ActionItem{s.item}, s.err
}

type attachmentServiceStub struct {
	attachment persistence.Attachment
	err        error
}

func (s *attachmentServiceStub) Upload(ctx context.Context, params application.UploadAttachmentParams) (persistence.Attachment, error) {
	return s.attachment, s.err
}

func (s *attachmentServiceStub) Download(ctx context.Context, attachmentID string) (persistence.Attachment, error) {
	return s.attachment, s.err
}

func (s *attachmentServiceStub) ListForMeeting(ctx context.Context, meetingID string) ([]persistence.Attachment, error) {
	return []persistence.Attachment{s.attachment}, s.err
}

func (s *attachmentServiceStub) Delete(ctx context.Context, principal application.Principal, attachmentID string) error {
	return s.err
}

type notificationServiceStub struct {
	notification persistence.Notification
	count        int
	err          error
}

func (s *notificationServiceStub) List(ctx context.Context, principal application.Principal, unreadOnly bool) ([]persistence.Notification, error) {
	return []persistence.Notification{s.notification}, s.err
}

func (s *notificationServiceStub) UnreadCount(ctx context.Context, principal application.Principal) (int, error) {
	return s.count, s.err
}

func (s *notificationServiceStub) MarkRead(ctx context.Context, principal application.Principal, notificationID string) error {
	return s.err
}

func (s *notificationServiceStub) MarkAllRead(ctx context.Context, principal application.Principal) error {
	return s.err
}

func (s *notificationServiceStub) Announce(ctx context.Context, principal application.Principal, userID, title, message string) (persistence.Notification, error) {
	return s.notification, s.err
}

type analyticsServiceStub struct {
	summary application.AnalyticsSummary
	usage   []persistence.RoomUsage
	err     error
}

func (s *analyticsServiceStub) Summary(ctx context.Context, principal application.Principal, from, to *time.Time) (application.AnalyticsSummary, error) {
	return s.summary, s.err
}

func (s *analyticsServiceStub) RoomUsage(ctx context.Context, principal application.Principal, from, to time.Time) ([]persistence.RoomUsage, error) {
	return s.usage, s.err
}
