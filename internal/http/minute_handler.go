package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
)

type minuteService interface {
	CreateMinutes(ctx context.Context, principal application.Principal, meetingID string, input application.MinuteInput) (persistence.Minute, error)
	GetMinutes(ctx context.Context, meetingID string) (persistence.Minute, error)
	GetMinute(ctx context.Context, minuteID string) (persistence.Minute, error)
	UpdateMinutes(ctx context.Context, principal application.Principal, minuteID string, input application.MinuteInput) (persistence.Minute, error)
	AddActionItem(ctx context.Context, principal application.Principal, minuteID string, input application.ActionItemInput) (persistence.ActionItem, error)
	UpdateActionItem(ctx context.Context, principal application.Principal, itemID string, input application.ActionItemInput) (persistence.ActionItem, error)
	DeleteActionItem(ctx context.Context, principal application.Principal, itemID string) error
	ListActionItems(ctx context.Context, minuteID string) ([]persistence.ActionItem, error)
}

type MinuteHandler struct {
	service   minuteService
	responder responder
	logger    *slog.Logger
}

func NewMinuteHandler(service minuteService, logger *slog.Logger) *MinuteHandler {
	base := defaultLogger(logger)
	return &MinuteHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MinuteHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MinuteHandler", operation, attrs...)
}

// CreateForMeeting records minutes under a meeting. A repeated create
// returns the existing record.
func (h *MinuteHandler) CreateForMeeting(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req minuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateForMeeting", "principal_id", principal.UserID, "meeting_id", meetingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode minutes request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateForMeeting", "principal_id", principal.UserID, "meeting_id", meetingID)

	minute, err := h.service.CreateMinutes(r.Context(), principal, meetingID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "minutes creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("minute_id", minute.ID).InfoContext(r.Context(), "minutes recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, minuteResponse{Minute: toMinuteDTO(minute)})
}

func (h *MinuteHandler) GetForMeeting(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "GetForMeeting", "meeting_id", meetingID)

	minute, err := h.service.GetMinutes(r.Context(), meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "minutes fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, minuteResponse{Minute: toMinuteDTO(minute)})
}

func (h *MinuteHandler) Get(w http.ResponseWriter, r *http.Request, minuteID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Get", "minute_id", minuteID)

	minute, err := h.service.GetMinute(r.Context(), minuteID)
	if err != nil {
		logger.ErrorContext(r.Context(), "minutes fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, minuteResponse{Minute: toMinuteDTO(minute)})
}

func (h *MinuteHandler) Update(w http.ResponseWriter, r *http.Request, minuteID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req minuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "minute_id", minuteID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode minutes update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "minute_id", minuteID)

	minute, err := h.service.UpdateMinutes(r.Context(), principal, minuteID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "minutes update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "minutes updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, minuteResponse{Minute: toMinuteDTO(minute)})
}

func (h *MinuteHandler) ListActions(w http.ResponseWriter, r *http.Request, minuteID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListActions", "minute_id", minuteID)

	items, err := h.service.ListActionItems(r.Context(), minuteID)
	if err != nil {
		logger.ErrorContext(r.Context(), "action item list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listActionItemsResponse{ActionItems: toActionItemDTOs(items)})
}

func (h *MinuteHandler) AddAction(w http.ResponseWriter, r *http.Request, minuteID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req actionItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddAction", "principal_id", principal.UserID, "minute_id", minuteID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode action item", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "AddAction", "principal_id", principal.UserID, "minute_id", minuteID)

	item, err := h.service.AddActionItem(r.Context(), principal, minuteID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "action item creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("action_item_id", item.ID).InfoContext(r.Context(), "action item recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, actionItemResponse{ActionItem: toActionItemDTO(item)})
}

func (h *MinuteHandler) UpdateAction(w http.ResponseWriter, r *http.Request, itemID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req actionItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateAction", "principal_id", principal.UserID, "action_item_id", itemID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode action item update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "UpdateAction", "principal_id", principal.UserID, "action_item_id", itemID)

	item, err := h.service.UpdateActionItem(r.Context(), principal, itemID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "action item update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "action item updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, actionItemResponse{ActionItem: toActionItemDTO(item)})
}

func (h *MinuteHandler) DeleteAction(w http.ResponseWriter, r *http.Request, itemID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteAction", "principal_id", principal.UserID, "action_item_id", itemID)

	if err := h.service.DeleteActionItem(r.Context(), principal, itemID); err != nil {
		logger.ErrorContext(r.Context(), "action item delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "action item deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type minuteRequest struct {
	Notes      string `json:"notes"`
	Discussion string `json:"discussion"`
	Decisions  string `json:"decisions"`
}

func (r minuteRequest) toInput() application.MinuteInput {
	return application.MinuteInput{
		Notes:      r.Notes,
		Discussion: r.Discussion,
		Decisions:  r.Decisions,
	}
}

type actionItemRequest struct {
	Description   string  `json:"description"`
	AssigneeID    *string `json:"assignee_id"`
	AssigneeLabel *string `json:"assignee_label"`
	DueDate       *string `json:"due_date"`
	Status        string  `json:"status"`
}

func (r actionItemRequest) toInput() (application.ActionItemInput, error) {
	input := application.ActionItemInput{
		Description:   strings.TrimSpace(r.Description),
		AssigneeID:    r.AssigneeID,
		AssigneeLabel: r.AssigneeLabel,
		Status:        strings.TrimSpace(r.Status),
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		parsed, err := time.Parse(time.RFC3339, *r.DueDate)
		if err != nil {
			return application.ActionItemInput{}, errInvalidTimeParam
		}
		input.DueDate = &parsed
	}
	return input, nil
}

type minuteResponse struct {
	Minute minuteDTO `json:"minute"`
}

type actionItemResponse struct {
	ActionItem actionItemDTO `json:"action_item"`
}

type listActionItemsResponse struct {
	ActionItems []actionItemDTO `json:"action_items"`
}
