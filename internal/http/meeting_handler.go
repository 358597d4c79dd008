package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

var (
	errInvalidTimeParam = errors.New("time parameters must be RFC 3339 timestamps")
	errMissingWindow    = errors.New("from_utc and to_utc query parameters are required")
)

type meetingService interface {
	CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (persistence.Meeting, []string, error)
	UpdateMeeting(ctx context.Context, params application.UpdateMeetingParams) (persistence.Meeting, error)
	GetMeeting(ctx context.Context, meetingID string) (persistence.Meeting, error)
	DeleteMeeting(ctx context.Context, principal application.Principal, meetingID string) error
	MyMeetings(ctx context.Context, principal application.Principal) ([]persistence.Meeting, error)
	Search(ctx context.Context, params application.SearchMeetingsParams) ([]persistence.Meeting, error)
	Start(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error)
	End(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error)
	Cancel(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error)
	Invite(ctx context.Context, principal application.Principal, meetingID string, emails []string) ([]string, error)
	ListAttendees(ctx context.Context, meetingID string) ([]persistence.Attendee, error)
	Respond(ctx context.Context, principal application.Principal, meetingID, status string) error
	RemoveAttendee(ctx context.Context, principal application.Principal, meetingID, userID string) error
}

type availabilityService interface {
	Availability(ctx context.Context, from, to time.Time, roomID *string) ([]application.RoomAvailability, error)
}

type MeetingHandler struct {
	service      meetingService
	availability availabilityService
	responder    responder
	logger       *slog.Logger
}

func NewMeetingHandler(service meetingService, availability availabilityService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{
		service:      service,
		availability: availability,
		responder:    newResponder(base),
		logger:       base,
	}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", input.RoomID)

	meeting, skipped, err := h.service.CreateMeeting(r.Context(), application.CreateMeetingParams{
		Principal:      principal,
		Input:          input,
		AttendeeEmails: req.AttendeeEmails,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("meeting_id", meeting.ID).InfoContext(r.Context(), "meeting booked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, meetingResponse{
		Meeting:       toMeetingDTO(meeting),
		SkippedEmails: skipped,
	})
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Get", "meeting_id", meetingID)

	meeting, err := h.service.GetMeeting(r.Context(), meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "meeting_id", meetingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "meeting_id", meetingID)

	meeting, err := h.service.UpdateMeeting(r.Context(), application.UpdateMeetingParams{
		Principal: principal,
		MeetingID: meetingID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "meeting_id", meetingID)

	if err := h.service.DeleteMeeting(r.Context(), principal, meetingID); err != nil {
		logger.ErrorContext(r.Context(), "meeting delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	meetings, err := h.service.MyMeetings(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(meetings)).InfoContext(r.Context(), "meetings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetingsResponse{Meetings: toMeetingDTOs(meetings)})
}

func (h *MeetingHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	params := application.SearchMeetingsParams{
		Principal:  principal,
		TitleQuery: strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if roomID := strings.TrimSpace(r.URL.Query().Get("room_id")); roomID != "" {
		params.RoomID = &roomID
	}
	if participant := strings.TrimSpace(r.URL.Query().Get("participant_id")); participant != "" {
		params.ParticipantID = &participant
	}
	var err error
	if params.From, err = parseTimeQuery(r, "from_utc"); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParam)
		return
	}
	if params.To, err = parseTimeQuery(r, "to_utc"); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParam)
		return
	}
	for _, raw := range strings.Split(r.URL.Query().Get("status"), ",") {
		status := booking.Status(strings.TrimSpace(raw))
		if status == "" {
			continue
		}
		if !status.Valid() {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("unknown meeting status filter"))
			return
		}
		params.Statuses = append(params.Statuses, status)
	}

	logger := h.log(r.Context(), "Search", "principal_id", principal.UserID)

	meetings, err := h.service.Search(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(meetings)).InfoContext(r.Context(), "meetings searched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetingsResponse{Meetings: toMeetingDTOs(meetings)})
}

// Availability reports the Free/Busy state of rooms for a window. The
// endpoint is public so visiting staff can check before signing in.
func (h *MeetingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	from, err := parseTimeQuery(r, "from_utc")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParam)
		return
	}
	to, err := parseTimeQuery(r, "to_utc")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParam)
		return
	}
	if from == nil || to == nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingWindow)
		return
	}
	var roomID *string
	if value := strings.TrimSpace(r.URL.Query().Get("room_id")); value != "" {
		roomID = &value
	}

	logger := h.log(r.Context(), "Availability")

	entries, err := h.availability.Availability(r.Context(), *from, *to, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{Rooms: toRoomAvailabilityDTOs(entries, *from, *to)})
}

func (h *MeetingHandler) Start(w http.ResponseWriter, r *http.Request, meetingID string) {
	h.transition(w, r, meetingID, "Start", h.serviceStart)
}

func (h *MeetingHandler) End(w http.ResponseWriter, r *http.Request, meetingID string) {
	h.transition(w, r, meetingID, "End", h.serviceEnd)
}

func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request, meetingID string) {
	h.transition(w, r, meetingID, "Cancel", h.serviceCancel)
}

func (h *MeetingHandler) serviceStart(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error) {
	return h.service.Start(ctx, principal, meetingID)
}

func (h *MeetingHandler) serviceEnd(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error) {
	return h.service.End(ctx, principal, meetingID)
}

func (h *MeetingHandler) serviceCancel(ctx context.Context, principal application.Principal, meetingID string) (persistence.Meeting, error) {
	return h.service.Cancel(ctx, principal, meetingID)
}

func (h *MeetingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	meetingID string,
	operation string,
	apply func(context.Context, application.Principal, string) (persistence.Meeting, error),
) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "meeting_id", meetingID)

	meeting, err := apply(r.Context(), principal, meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(meeting.Status)).InfoContext(r.Context(), "meeting transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) ListAttendees(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListAttendees", "meeting_id", meetingID)

	attendees, err := h.service.ListAttendees(r.Context(), meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendee list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendeesResponse{Attendees: toAttendeeDTOs(attendees)})
}

func (h *MeetingHandler) Invite(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Invite", "principal_id", principal.UserID, "meeting_id", meetingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode invite request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Invite", "principal_id", principal.UserID, "meeting_id", meetingID)

	skipped, err := h.service.Invite(r.Context(), principal, meetingID, req.Emails)
	if err != nil {
		logger.ErrorContext(r.Context(), "invite failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("skipped_count", len(skipped)).InfoContext(r.Context(), "attendees invited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, inviteResponse{SkippedEmails: skipped})
}

// Respond records an attendee's own reply. A principal may only change
// their own attendance.
func (h *MeetingHandler) Respond(w http.ResponseWriter, r *http.Request, meetingID, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if userID != principal.UserID {
		h.log(r.Context(), "Respond", "principal_id", principal.UserID, "user_id", userID, "error_kind", "forbidden").ErrorContext(r.Context(), "attempted to answer for another attendee")
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Respond", "principal_id", principal.UserID, "meeting_id", meetingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode response", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Respond", "principal_id", principal.UserID, "meeting_id", meetingID)

	if err := h.service.Respond(r.Context(), principal, meetingID, strings.TrimSpace(req.Status)); err != nil {
		logger.ErrorContext(r.Context(), "attendance response failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", req.Status).InfoContext(r.Context(), "attendance recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) RemoveAttendee(w http.ResponseWriter, r *http.Request, meetingID, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RemoveAttendee", "principal_id", principal.UserID, "meeting_id", meetingID, "user_id", userID)

	if err := h.service.RemoveAttendee(r.Context(), principal, meetingID, userID); err != nil {
		logger.ErrorContext(r.Context(), "attendee removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendee removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type meetingRequest struct {
	RoomID         string   `json:"room_id"`
	Title          string   `json:"title"`
	Agenda         *string  `json:"agenda"`
	Start          string   `json:"start_utc"`
	End            string   `json:"end_utc"`
	AttendeeEmails []string `json:"attendee_emails"`
}

func (r meetingRequest) toInput() (application.MeetingInput, error) {
	input := application.MeetingInput{
		RoomID: strings.TrimSpace(r.RoomID),
		Title:  strings.TrimSpace(r.Title),
		Agenda: r.Agenda,
	}
	var err error
	if input.Start, err = time.Parse(time.RFC3339, r.Start); err != nil {
		return application.MeetingInput{}, errInvalidTimeParam
	}
	if input.End, err = time.Parse(time.RFC3339, r.End); err != nil {
		return application.MeetingInput{}, errInvalidTimeParam
	}
	return input, nil
}

type meetingResponse struct {
	Meeting       meetingDTO `json:"meeting"`
	SkippedEmails []string   `json:"skipped_emails,omitempty"`
}

type listMeetingsResponse struct {
	Meetings []meetingDTO `json:"meetings"`
}

type availabilityResponse struct {
	Rooms []roomAvailabilityDTO `json:"rooms"`
}

type listAttendeesResponse struct {
	Attendees []attendeeDTO `json:"attendees"`
}

type inviteRequest struct {
	Emails []string `json:"emails"`
}

type inviteResponse struct {
	SkippedEmails []string `json:"skipped_emails,omitempty"`
}

type respondRequest struct {
	Status string `json:"status"`
}

// parseTimeQuery reads an optional RFC 3339 query parameter. Absence is
// not an error.
func parseTimeQuery(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
