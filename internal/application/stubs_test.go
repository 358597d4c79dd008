package application

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
	"github.com/example/meetingroom/internal/token"
)

// In-memory repository stubs shared by the service tests. Every stub keeps
// state in maps and lets a test inject a forced error through err.

type userRepoStub struct {
	users map[string]persistence.User
	err   error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]persistence.User)}
}

func (s *userRepoStub) CreateUser(_ context.Context, user persistence.User) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) UpdateUser(_ context.Context, user persistence.User) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) GetUser(_ context.Context, id string) (persistence.User, error) {
	if s.err != nil {
		return persistence.User{}, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	if s.err != nil {
		return persistence.User{}, s.err
	}
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userRepoStub) ListUsers(_ context.Context) ([]persistence.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *userRepoStub) DeleteUser(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type refreshTokenRepoStub struct {
	tokens map[string]persistence.RefreshToken
	err    error
}

func newRefreshTokenRepoStub() *refreshTokenRepoStub {
	return &refreshTokenRepoStub{tokens: make(map[string]persistence.RefreshToken)}
}

func (s *refreshTokenRepoStub) CreateRefreshToken(_ context.Context, token persistence.RefreshToken) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.tokens[token.Token]; ok {
		return persistence.ErrDuplicate
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *refreshTokenRepoStub) GetRefreshToken(_ context.Context, token string) (persistence.RefreshToken, error) {
	if s.err != nil {
		return persistence.RefreshToken{}, s.err
	}
	stored, ok := s.tokens[token]
	if !ok {
		return persistence.RefreshToken{}, persistence.ErrNotFound
	}
	return stored, nil
}

func (s *refreshTokenRepoStub) RevokeRefreshToken(_ context.Context, token string, revokedAt time.Time, revokedByIP string, replacedBy *string) error {
	if s.err != nil {
		return s.err
	}
	stored, ok := s.tokens[token]
	if !ok || stored.RevokedAt != nil {
		return persistence.ErrNotFound
	}
	stored.RevokedAt = &revokedAt
	stored.RevokedByIP = revokedByIP
	stored.ReplacedByToken = replacedBy
	s.tokens[token] = stored
	return nil
}

func (s *refreshTokenRepoStub) DeleteExpiredRefreshTokens(_ context.Context, reference time.Time) error {
	for key, stored := range s.tokens {
		if stored.ExpiresAt.Before(reference) {
			delete(s.tokens, key)
		}
	}
	return nil
}

type roomRepoStub struct {
	rooms map[string]persistence.Room
	err   error
}

func newRoomRepoStub() *roomRepoStub {
	return &roomRepoStub{rooms: make(map[string]persistence.Room)}
}

func (s *roomRepoStub) CreateRoom(_ context.Context, room persistence.Room) error {
	if s.err != nil {
		return s.err
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *roomRepoStub) UpdateRoom(_ context.Context, room persistence.Room) error {
	if _, ok := s.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *roomRepoStub) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	if s.err != nil {
		return persistence.Room{}, s.err
	}
	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *roomRepoStub) ListRooms(_ context.Context) ([]persistence.Room, error) {
	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *roomRepoStub) DeleteRoom(_ context.Context, id string) error {
	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

type meetingRepoStub struct {
	meetings    map[string]persistence.Meeting
	attendees   []persistence.Attendee
	busyRoomIDs []string
	conflict    bool
	err         error
}

func newMeetingRepoStub() *meetingRepoStub {
	return &meetingRepoStub{meetings: make(map[string]persistence.Meeting)}
}

func (s *meetingRepoStub) CreateMeeting(_ context.Context, meeting persistence.Meeting) error {
	if s.err != nil {
		return s.err
	}
	if s.conflict {
		return persistence.ErrBookingConflict
	}
	s.meetings[meeting.ID] = meeting
	return nil
}

func (s *meetingRepoStub) UpdateMeeting(_ context.Context, meeting persistence.Meeting, checkConflict bool) error {
	if s.err != nil {
		return s.err
	}
	if checkConflict && s.conflict {
		return persistence.ErrBookingConflict
	}
	if _, ok := s.meetings[meeting.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.meetings[meeting.ID] = meeting
	return nil
}

func (s *meetingRepoStub) UpdateMeetingStatus(_ context.Context, id string, status booking.Status) error {
	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.ErrNotFound
	}
	meeting.Status = status
	s.meetings[id] = meeting
	return nil
}

func (s *meetingRepoStub) GetMeeting(_ context.Context, id string) (persistence.Meeting, error) {
	if s.err != nil {
		return persistence.Meeting{}, s.err
	}
	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return meeting, nil
}

func (s *meetingRepoStub) ListMeetings(_ context.Context, _ persistence.MeetingFilter) ([]persistence.Meeting, error) {
	meetings := make([]persistence.Meeting, 0, len(s.meetings))
	for _, meeting := range s.meetings {
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}

func (s *meetingRepoStub) DeleteMeeting(_ context.Context, id string) error {
	if _, ok := s.meetings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}

func (s *meetingRepoStub) OverlappingRoomIDs(_ context.Context, _, _ time.Time, _ *string) ([]string, error) {
	return s.busyRoomIDs, nil
}

func (s *meetingRepoStub) AddAttendee(_ context.Context, attendee persistence.Attendee) error {
	for _, existing := range s.attendees {
		if existing.MeetingID == attendee.MeetingID && existing.UserID == attendee.UserID {
			return persistence.ErrDuplicate
		}
	}
	s.attendees = append(s.attendees, attendee)
	return nil
}

func (s *meetingRepoStub) ListAttendees(_ context.Context, meetingID string) ([]persistence.Attendee, error) {
	var result []persistence.Attendee
	for _, attendee := range s.attendees {
		if attendee.MeetingID == meetingID {
			result = append(result, attendee)
		}
	}
	return result, nil
}

func (s *meetingRepoStub) UpdateAttendeeStatus(_ context.Context, meetingID, userID, status string) error {
	for i, attendee := range s.attendees {
		if attendee.MeetingID == meetingID && attendee.UserID == userID {
			s.attendees[i].Status = status
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *meetingRepoStub) RemoveAttendee(_ context.Context, meetingID, userID string) error {
	for i, attendee := range s.attendees {
		if attendee.MeetingID == meetingID && attendee.UserID == userID {
			s.attendees = append(s.attendees[:i], s.attendees[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type minuteRepoStub struct {
	minutes map[string]persistence.Minute
	items   map[string]persistence.ActionItem
	err     error
}

func newMinuteRepoStub() *minuteRepoStub {
	return &minuteRepoStub{
		minutes: make(map[string]persistence.Minute),
		items:   make(map[string]persistence.ActionItem),
	}
}

func (s *minuteRepoStub) CreateMinute(_ context.Context, minute persistence.Minute) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.minutes {
		if existing.MeetingID == minute.MeetingID {
			return persistence.ErrDuplicate
		}
	}
	s.minutes[minute.ID] = minute
	return nil
}

func (s *minuteRepoStub) GetMinute(_ context.Context, id string) (persistence.Minute, error) {
	minute, ok := s.minutes[id]
	if !ok {
		return persistence.Minute{}, persistence.ErrNotFound
	}
	return minute, nil
}

func (s *minuteRepoStub) GetMinuteByMeeting(_ context.Context, meetingID string) (persistence.Minute, error) {
	for _, minute := range s.minutes {
		if minute.MeetingID == meetingID {
			return minute, nil
		}
	}
	return persistence.Minute{}, persistence.ErrNotFound
}

func (s *minuteRepoStub) UpdateMinute(_ context.Context, minute persistence.Minute) error {
	if _, ok := s.minutes[minute.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.minutes[minute.ID] = minute
	return nil
}

func (s *minuteRepoStub) CreateActionItem(_ context.Context, item persistence.ActionItem) error {
	s.items[item.ID] = item
	return nil
}

func (s *minuteRepoStub) GetActionItem(_ context.Context, id string) (persistence.ActionItem, error) {
	item, ok := s.items[id]
	if !ok {
		return persistence.ActionItem{}, persistence.ErrNotFound
	}
	return item, nil
}

func (s *minuteRepoStub) UpdateActionItem(_ context.Context, item persistence.ActionItem) error {
	if _, ok := s.items[item.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.items[item.ID] = item
	return nil
}

func (s *minuteRepoStub) DeleteActionItem(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *minuteRepoStub) ListActionItems(_ context.Context, minuteID string) ([]persistence.ActionItem, error) {
	var result []persistence.ActionItem
	for _, item := range s.items {
		if item.MinuteID == minuteID {
			result = append(result, item)
		}
	}
	return result, nil
}

type attachmentRepoStub struct {
	attachments map[string]persistence.Attachment
}

func newAttachmentRepoStub() *attachmentRepoStub {
	return &attachmentRepoStub{attachments: make(map[string]persistence.Attachment)}
}

func (s *attachmentRepoStub) CreateAttachment(_ context.Context, attachment persistence.Attachment) error {
	s.attachments[attachment.ID] = attachment
	return nil
}

func (s *attachmentRepoStub) GetAttachment(_ context.Context, id string) (persistence.Attachment, error) {
	attachment, ok := s.attachments[id]
	if !ok {
		return persistence.Attachment{}, persistence.ErrNotFound
	}
	return attachment, nil
}

func (s *attachmentRepoStub) ListAttachmentsForMeeting(_ context.Context, meetingID string) ([]persistence.Attachment, error) {
	var result []persistence.Attachment
	for _, attachment := range s.attachments {
		if attachment.MeetingID != nil && *attachment.MeetingID == meetingID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

func (s *attachmentRepoStub) DeleteAttachment(_ context.Context, id string) error {
	if _, ok := s.attachments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.attachments, id)
	return nil
}

type notificationRepoStub struct {
	created []persistence.Notification
}

func (s *notificationRepoStub) CreateNotification(_ context.Context, notification persistence.Notification) error {
	s.created = append(s.created, notification)
	return nil
}

func (s *notificationRepoStub) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]persistence.Notification, error) {
	var result []persistence.Notification
	for _, notification := range s.created {
		if notification.UserID != userID {
			continue
		}
		if unreadOnly && notification.IsRead {
			continue
		}
		result = append(result, notification)
	}
	return result, nil
}

func (s *notificationRepoStub) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, notification := range s.created {
		if notification.UserID == userID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *notificationRepoStub) MarkRead(_ context.Context, id, userID string) error {
	for i, notification := range s.created {
		if notification.ID == id && notification.UserID == userID {
			s.created[i].IsRead = true
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *notificationRepoStub) MarkAllRead(_ context.Context, userID string) error {
	for i, notification := range s.created {
		if notification.UserID == userID {
			s.created[i].IsRead = true
		}
	}
	return nil
}

type analyticsRepoStub struct {
	byStatus map[string]int
	users    int
	rooms    int
	meetings int
	usage    []persistence.RoomUsage
}

func (s *analyticsRepoStub) CountMeetingsByStatus(_ context.Context) (map[string]int, error) {
	return s.byStatus, nil
}

func (s *analyticsRepoStub) CountRows(_ context.Context) (int, int, int, error) {
	return s.users, s.rooms, s.meetings, nil
}

func (s *analyticsRepoStub) RoomUsage(_ context.Context, _, _ time.Time) ([]persistence.RoomUsage, error) {
	return s.usage, nil
}

// issuerStub mints predictable access tokens. ParseExpired reports subject as
// the recovered claim subject, or parseErr when set.
type issuerStub struct {
	token     string
	expiresAt time.Time
	err       error
	subject   string
	parseErr  error
}

func (s *issuerStub) Issue(_, _ string, _ []string) (string, time.Time, error) {
	return s.token, s.expiresAt, s.err
}

func (s *issuerStub) ParseExpired(string) (*token.Claims, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	return &token.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: s.subject}}, nil
}

// sequence returns a generator yielding the given values then "fallback".
func sequence(values ...string) func() string {
	return func() string {
		if len(values) == 0 {
			return "fallback"
		}
		next := values[0]
		values = values[1:]
		return next
	}
}
