package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
)

type analyticsService interface {
	Summary(ctx context.Context, principal application.Principal, from, to *time.Time) (application.AnalyticsSummary, error)
	RoomUsage(ctx context.Context, principal application.Principal, from, to time.Time) ([]persistence.RoomUsage, error)
}

type AnalyticsHandler struct {
	service   analyticsService
	responder responder
	logger    *slog.Logger
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	base := defaultLogger(logger)
	return &AnalyticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AnalyticsHandler", operation, attrs...)
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

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

	logger := h.log(r.Context(), "Summary", "principal_id", principal.UserID)

	summary, err := h.service.Summary(r.Context(), principal, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "analytics summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, analyticsSummaryResponse{
		TotalUsers:       summary.TotalUsers,
		TotalRooms:       summary.TotalRooms,
		TotalMeetings:    summary.TotalMeetings,
		MeetingsByStatus: summary.MeetingsByStatus,
		RoomUsage:        toRoomUsageDTOs(summary.RoomUsage),
	})
}

func (h *AnalyticsHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

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

	logger := h.log(r.Context(), "Rooms", "principal_id", principal.UserID)

	usage, err := h.service.RoomUsage(r.Context(), principal, *from, *to)
	if err != nil {
		logger.ErrorContext(r.Context(), "room usage report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomUsageResponse{RoomUsage: toRoomUsageDTOs(usage)})
}

type analyticsSummaryResponse struct {
	TotalUsers       int            `json:"total_users"`
	TotalRooms       int            `json:"total_rooms"`
	TotalMeetings    int            `json:"total_meetings"`
	MeetingsByStatus map[string]int `json:"meetings_by_status"`
	RoomUsage        []roomUsageDTO `json:"room_usage"`
}

type roomUsageResponse struct {
	RoomUsage []roomUsageDTO `json:"room_usage"`
}
