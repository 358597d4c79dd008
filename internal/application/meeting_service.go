package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

// MeetingService orchestrates bookings, the meeting lifecycle and attendees.
type MeetingService struct {
	meetings      persistence.MeetingRepository
	rooms         persistence.RoomRepository
	users         persistence.UserRepository
	notifications persistence.NotificationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewMeetingService wires dependencies for the meeting service.
func NewMeetingService(
	meetings persistence.MeetingRepository,
	rooms persistence.RoomRepository,
	users persistence.UserRepository,
	notifications persistence.NotificationRepository,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:      meetings,
		rooms:         rooms,
		users:         users,
		notifications: notifications,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// CreateMeeting books a room for the principal. Attendee emails that do not
// resolve to an account are skipped and reported back to the caller.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (persistence.Meeting, []string, error) {
	normalized := normalizeMeetingInput(params.Input)
	vErr := validateMeetingInput(normalized)
	if vErr.HasErrors() {
		return persistence.Meeting{}, nil, vErr
	}

	if _, err := s.rooms.GetRoom(ctx, normalized.RoomID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr.add("room_id", "room does not exist")
			return persistence.Meeting{}, nil, vErr
		}
		return persistence.Meeting{}, nil, err
	}

	now := s.now()
	meeting := persistence.Meeting{
		ID:          s.idGenerator(),
		RoomID:      normalized.RoomID,
		OrganizerID: params.Principal.UserID,
		Title:       normalized.Title,
		Agenda:      normalized.Agenda,
		Start:       normalized.Start,
		End:         normalized.End,
		Status:      booking.StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	logger := s.loggerWith(ctx, "CreateMeeting", "room_id", meeting.RoomID)
	if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
		if errors.Is(err, persistence.ErrBookingConflict) {
			logger.InfoContext(ctx, "booking rejected", "error_kind", "room_unavailable")
			return persistence.Meeting{}, nil, ErrRoomUnavailable
		}
		return persistence.Meeting{}, nil, mapRepositoryError(err)
	}
	logger.InfoContext(ctx, "meeting booked", "meeting_id", meeting.ID)

	skipped, err := s.inviteByEmail(ctx, meeting, params.AttendeeEmails)
	if err != nil {
		return persistence.Meeting{}, nil, err
	}

	s.notify(ctx, persistence.Notification{
		UserID:    meeting.OrganizerID,
		Type:      persistence.NotificationBookingConfirmation,
		Title:     "Booking confirmed",
		Message:   fmt.Sprintf("%q is booked from %s to %s.", meeting.Title, meeting.Start.Format(time.RFC3339), meeting.End.Format(time.RFC3339)),
		MeetingID: &meeting.ID,
	})

	return meeting, skipped, nil
}

// UpdateMeeting edits a booking. Only the organizer or an admin may edit, and
// only while the meeting is scheduled. A changed room or window re-runs the
// conflict check.
func (s *MeetingService) UpdateMeeting(ctx context.Context, params UpdateMeetingParams) (persistence.Meeting, error) {
	existing, err := s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		return persistence.Meeting{}, mapRepositoryError(err)
	}
	if !canManageMeeting(params.Principal, existing) {
		return persistence.Meeting{}, ErrUnauthorized
	}
	if existing.Status != booking.StatusScheduled {
		return persistence.Meeting{}, ErrInvalidTransition
	}

	normalized := normalizeMeetingInput(params.Input)
	vErr := validateMeetingInput(normalized)
	if vErr.HasErrors() {
		return persistence.Meeting{}, vErr
	}

	rebooked := existing.RoomID != normalized.RoomID ||
		!existing.Start.Equal(normalized.Start) ||
		!existing.End.Equal(normalized.End)

	updated := existing
	updated.RoomID = normalized.RoomID
	updated.Title = normalized.Title
	updated.Agenda = normalized.Agenda
	updated.Start = normalized.Start
	updated.End = normalized.End
	updated.UpdatedAt = s.now()

	if err := s.meetings.UpdateMeeting(ctx, updated, rebooked); err != nil {
		if errors.Is(err, persistence.ErrBookingConflict) {
			return persistence.Meeting{}, ErrRoomUnavailable
		}
		return persistence.Meeting{}, mapRepositoryError(err)
	}

	s.notifyAttendees(ctx, updated, persistence.NotificationMeetingUpdated,
		"Meeting updated",
		fmt.Sprintf("%q was rescheduled to %s.", updated.Title, updated.Start.Format(time.RFC3339)))

	return updated, nil
}

// Start moves a scheduled meeting into progress.
func (s *MeetingService) Start(ctx context.Context, principal Principal, meetingID string) (persistence.Meeting, error) {
	return s.transition(ctx, principal, meetingID, booking.StatusStarted)
}

// End finishes a meeting.
func (s *MeetingService) End(ctx context.Context, principal Principal, meetingID string) (persistence.Meeting, error) {
	return s.transition(ctx, principal, meetingID, booking.StatusEnded)
}

// Cancel withdraws a scheduled booking and tells the attendees.
func (s *MeetingService) Cancel(ctx context.Context, principal Principal, meetingID string) (persistence.Meeting, error) {
	meeting, err := s.transition(ctx, principal, meetingID, booking.StatusCancelled)
	if err != nil {
		return persistence.Meeting{}, err
	}
	s.notifyAttendees(ctx, meeting, persistence.NotificationMeetingCancelled,
		"Meeting cancelled",
		fmt.Sprintf("%q on %s was cancelled.", meeting.Title, meeting.Start.Format("2006-01-02")))
	return meeting, nil
}

func (s *MeetingService) transition(ctx context.Context, principal Principal, meetingID string, to booking.Status) (persistence.Meeting, error) {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return persistence.Meeting{}, mapRepositoryError(err)
	}
	if !canManageMeeting(principal, meeting) {
		return persistence.Meeting{}, ErrUnauthorized
	}
	if !booking.CanTransition(meeting.Status, to) {
		return persistence.Meeting{}, ErrInvalidTransition
	}

	if err := s.meetings.UpdateMeetingStatus(ctx, meetingID, to); err != nil {
		return persistence.Meeting{}, mapRepositoryError(err)
	}
	meeting.Status = to
	meeting.UpdatedAt = s.now()

	s.loggerWith(ctx, "Transition").InfoContext(ctx, "meeting status changed",
		"meeting_id", meetingID, "status", string(to))
	return meeting, nil
}

// GetMeeting returns one meeting for any authenticated account.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID string) (persistence.Meeting, error) {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return persistence.Meeting{}, mapRepositoryError(err)
	}
	return meeting, nil
}

// Search lists meetings matching the query.
func (s *MeetingService) Search(ctx context.Context, params SearchMeetingsParams) ([]persistence.Meeting, error) {
	filter := persistence.MeetingFilter{
		RoomID:        params.RoomID,
		ParticipantID: params.ParticipantID,
		StartsBefore:  params.To,
		EndsAfter:     params.From,
		TitleQuery:    params.TitleQuery,
		Statuses:      params.Statuses,
	}
	return s.meetings.ListMeetings(ctx, filter)
}

// MyMeetings lists the meetings the principal organizes or attends.
func (s *MeetingService) MyMeetings(ctx context.Context, principal Principal) ([]persistence.Meeting, error) {
	participantID := principal.UserID
	return s.meetings.ListMeetings(ctx, persistence.MeetingFilter{ParticipantID: &participantID})
}

// DeleteMeeting removes a booking and its records entirely. Organizer or admin only.
func (s *MeetingService) DeleteMeeting(ctx context.Context, principal Principal, meetingID string) error {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !canManageMeeting(principal, meeting) {
		return ErrUnauthorized
	}
	if err := s.meetings.DeleteMeeting(ctx, meetingID); err != nil {
		return mapRepositoryError(err)
	}
	s.loggerWith(ctx, "DeleteMeeting").InfoContext(ctx, "meeting deleted", "meeting_id", meetingID)
	return nil
}

// Invite adds attendees by email. Unresolvable addresses are skipped, not failed.
func (s *MeetingService) Invite(ctx context.Context, principal Principal, meetingID string, emails []string) ([]string, error) {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !canManageMeeting(principal, meeting) {
		return nil, ErrUnauthorized
	}
	return s.inviteByEmail(ctx, meeting, emails)
}

// ListAttendees returns a meeting's attendee list.
func (s *MeetingService) ListAttendees(ctx context.Context, meetingID string) ([]persistence.Attendee, error) {
	if _, err := s.meetings.GetMeeting(ctx, meetingID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.meetings.ListAttendees(ctx, meetingID)
}

// Respond records the principal's accept/decline on their own invitation.
func (s *MeetingService) Respond(ctx context.Context, principal Principal, meetingID, status string) error {
	if status != persistence.AttendeeAccepted && status != persistence.AttendeeDeclined {
		vErr := &ValidationError{}
		vErr.add("status", "status must be Accepted or Declined")
		return vErr
	}
	if err := s.meetings.UpdateAttendeeStatus(ctx, meetingID, principal.UserID, status); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// RemoveAttendee withdraws an invitation. Organizer or admin only.
func (s *MeetingService) RemoveAttendee(ctx context.Context, principal Principal, meetingID, userID string) error {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !canManageMeeting(principal, meeting) {
		return ErrUnauthorized
	}
	if err := s.meetings.RemoveAttendee(ctx, meetingID, userID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

func (s *MeetingService) inviteByEmail(ctx context.Context, meeting persistence.Meeting, emails []string) ([]string, error) {
	var skipped []string
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			continue
		}

		user, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				skipped = append(skipped, email)
				continue
			}
			return nil, err
		}
		if user.ID == meeting.OrganizerID {
			continue
		}

		attendee := persistence.Attendee{
			ID:        s.idGenerator(),
			MeetingID: meeting.ID,
			UserID:    user.ID,
			Status:    persistence.AttendeeInvited,
			CreatedAt: s.now(),
		}
		if err := s.meetings.AddAttendee(ctx, attendee); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			return nil, err
		}

		s.notify(ctx, persistence.Notification{
			UserID:    user.ID,
			Type:      persistence.NotificationMeetingInvitation,
			Title:     "You were invited",
			Message:   fmt.Sprintf("You were invited to %q on %s.", meeting.Title, meeting.Start.Format("2006-01-02 15:04")),
			MeetingID: &meeting.ID,
		})
	}
	return skipped, nil
}

func (s *MeetingService) notifyAttendees(ctx context.Context, meeting persistence.Meeting, kind, title, message string) {
	attendees, err := s.meetings.ListAttendees(ctx, meeting.ID)
	if err != nil {
		s.loggerWith(ctx, "notifyAttendees").WarnContext(ctx, "attendee lookup failed", "error", err)
		return
	}
	for _, attendee := range attendees {
		s.notify(ctx, persistence.Notification{
			UserID:    attendee.UserID,
			Type:      kind,
			Title:     title,
			Message:   message,
			MeetingID: &meeting.ID,
		})
	}
}

// notify inserts a notification best-effort. A failed insert is logged and
// never fails the triggering operation.
func (s *MeetingService) notify(ctx context.Context, notification persistence.Notification) {
	if s.notifications == nil {
		return
	}
	notification.ID = s.idGenerator()
	notification.CreatedAt = s.now()
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.loggerWith(ctx, "notify").WarnContext(ctx, "notification insert failed", "error", err)
	}
}

func canManageMeeting(principal Principal, meeting persistence.Meeting) bool {
	return principal.IsAdmin || principal.UserID == meeting.OrganizerID
}

func normalizeMeetingInput(input MeetingInput) MeetingInput {
	input.Title = strings.TrimSpace(input.Title)
	if input.Agenda != nil {
		trimmed := strings.TrimSpace(*input.Agenda)
		if trimmed == "" {
			input.Agenda = nil
		} else {
			input.Agenda = &trimmed
		}
	}
	return input
}

func validateMeetingInput(input MeetingInput) *ValidationError {
	vErr := &ValidationError{}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("time", "start and end are required")
	} else if !input.End.After(input.Start) {
		vErr.add("time", "end must be after start")
	}
	return vErr
}
