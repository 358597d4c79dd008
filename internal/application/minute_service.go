package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// MinuteService manages meeting minutes and their action items.
type MinuteService struct {
	minutes       persistence.MinuteRepository
	meetings      persistence.MeetingRepository
	users         persistence.UserRepository
	notifications persistence.NotificationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewMinuteService wires dependencies for the minute service.
func NewMinuteService(
	minutes persistence.MinuteRepository,
	meetings persistence.MeetingRepository,
	users persistence.UserRepository,
	notifications persistence.NotificationRepository,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *MinuteService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MinuteService{
		minutes:       minutes,
		meetings:      meetings,
		users:         users,
		notifications: notifications,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *MinuteService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MinuteService", operation, attrs...)
}

// CreateMinutes records the minutes for a meeting. Each meeting carries at
// most one record; a second create returns the existing one.
func (s *MinuteService) CreateMinutes(ctx context.Context, principal Principal, meetingID string, input MinuteInput) (persistence.Minute, error) {
	if _, err := s.meetings.GetMeeting(ctx, meetingID); err != nil {
		return persistence.Minute{}, mapRepositoryError(err)
	}

	now := s.now()
	minute := persistence.Minute{
		ID:         s.idGenerator(),
		MeetingID:  meetingID,
		CreatorID:  principal.UserID,
		Notes:      strings.TrimSpace(input.Notes),
		Discussion: strings.TrimSpace(input.Discussion),
		Decisions:  strings.TrimSpace(input.Decisions),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.minutes.CreateMinute(ctx, minute); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return s.minutes.GetMinuteByMeeting(ctx, meetingID)
		}
		return persistence.Minute{}, mapRepositoryError(err)
	}

	s.loggerWith(ctx, "CreateMinutes").InfoContext(ctx, "minutes recorded",
		"meeting_id", meetingID, "minute_id", minute.ID)
	return minute, nil
}

// GetMinutes returns the minutes attached to a meeting.
func (s *MinuteService) GetMinutes(ctx context.Context, meetingID string) (persistence.Minute, error) {
	minute, err := s.minutes.GetMinuteByMeeting(ctx, meetingID)
	if err != nil {
		return persistence.Minute{}, mapRepositoryError(err)
	}
	return minute, nil
}

// GetMinute returns one minutes record by its own identifier.
func (s *MinuteService) GetMinute(ctx context.Context, minuteID string) (persistence.Minute, error) {
	minute, err := s.minutes.GetMinute(ctx, minuteID)
	if err != nil {
		return persistence.Minute{}, mapRepositoryError(err)
	}
	return minute, nil
}

// UpdateMinutes edits a minutes record. Creator or admin only.
func (s *MinuteService) UpdateMinutes(ctx context.Context, principal Principal, minuteID string, input MinuteInput) (persistence.Minute, error) {
	existing, err := s.minutes.GetMinute(ctx, minuteID)
	if err != nil {
		return persistence.Minute{}, mapRepositoryError(err)
	}
	if !principal.IsAdmin && principal.UserID != existing.CreatorID {
		return persistence.Minute{}, ErrUnauthorized
	}

	existing.Notes = strings.TrimSpace(input.Notes)
	existing.Discussion = strings.TrimSpace(input.Discussion)
	existing.Decisions = strings.TrimSpace(input.Decisions)
	existing.UpdatedAt = s.now()

	if err := s.minutes.UpdateMinute(ctx, existing); err != nil {
		return persistence.Minute{}, mapRepositoryError(err)
	}
	return existing, nil
}

// AddActionItem records a follow-up under a minutes record and notifies the
// assignee when one is set.
func (s *MinuteService) AddActionItem(ctx context.Context, principal Principal, minuteID string, input ActionItemInput) (persistence.ActionItem, error) {
	if _, err := s.minutes.GetMinute(ctx, minuteID); err != nil {
		return persistence.ActionItem{}, mapRepositoryError(err)
	}

	normalized, vErr := normalizeActionItemInput(input)
	if vErr.HasErrors() {
		return persistence.ActionItem{}, vErr
	}

	if normalized.AssigneeID != nil {
		if _, err := s.users.GetUser(ctx, *normalized.AssigneeID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("assignee_id", "assignee does not exist")
				return persistence.ActionItem{}, vErr
			}
			return persistence.ActionItem{}, err
		}
	}

	now := s.now()
	item := persistence.ActionItem{
		ID:            s.idGenerator(),
		MinuteID:      minuteID,
		Description:   normalized.Description,
		AssigneeID:    normalized.AssigneeID,
		AssigneeLabel: normalized.AssigneeLabel,
		DueDate:       normalized.DueDate,
		Status:        normalized.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.minutes.CreateActionItem(ctx, item); err != nil {
		return persistence.ActionItem{}, mapRepositoryError(err)
	}

	if item.AssigneeID != nil && s.notifications != nil {
		notification := persistence.Notification{
			ID:           s.idGenerator(),
			UserID:       *item.AssigneeID,
			Type:         persistence.NotificationActionItemAssigned,
			Title:        "Action item assigned",
			Message:      fmt.Sprintf("You were assigned: %s", item.Description),
			ActionItemID: &item.ID,
			CreatedAt:    now,
		}
		if err := s.notifications.CreateNotification(ctx, notification); err != nil {
			s.loggerWith(ctx, "AddActionItem").WarnContext(ctx, "notification insert failed", "error", err)
		}
	}

	return item, nil
}

// UpdateActionItem edits a follow-up. The assignee may change the status;
// everything else needs the minutes creator or an admin.
func (s *MinuteService) UpdateActionItem(ctx context.Context, principal Principal, itemID string, input ActionItemInput) (persistence.ActionItem, error) {
	existing, err := s.minutes.GetActionItem(ctx, itemID)
	if err != nil {
		return persistence.ActionItem{}, mapRepositoryError(err)
	}

	minute, err := s.minutes.GetMinute(ctx, existing.MinuteID)
	if err != nil {
		return persistence.ActionItem{}, mapRepositoryError(err)
	}

	isAssignee := existing.AssigneeID != nil && *existing.AssigneeID == principal.UserID
	isOwner := principal.IsAdmin || principal.UserID == minute.CreatorID
	if !isOwner && !isAssignee {
		return persistence.ActionItem{}, ErrUnauthorized
	}

	normalized, vErr := normalizeActionItemInput(input)
	if vErr.HasErrors() {
		return persistence.ActionItem{}, vErr
	}

	if isOwner {
		existing.Description = normalized.Description
		existing.AssigneeID = normalized.AssigneeID
		existing.AssigneeLabel = normalized.AssigneeLabel
		existing.DueDate = normalized.DueDate
	}
	existing.Status = normalized.Status
	existing.UpdatedAt = s.now()

	if err := s.minutes.UpdateActionItem(ctx, existing); err != nil {
		return persistence.ActionItem{}, mapRepositoryError(err)
	}
	return existing, nil
}

// DeleteActionItem removes a follow-up. Minutes creator or admin only.
func (s *MinuteService) DeleteActionItem(ctx context.Context, principal Principal, itemID string) error {
	existing, err := s.minutes.GetActionItem(ctx, itemID)
	if err != nil {
		return mapRepositoryError(err)
	}
	minute, err := s.minutes.GetMinute(ctx, existing.MinuteID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !principal.IsAdmin && principal.UserID != minute.CreatorID {
		return ErrUnauthorized
	}
	if err := s.minutes.DeleteActionItem(ctx, itemID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// ListActionItems returns the follow-ups under a minutes record.
func (s *MinuteService) ListActionItems(ctx context.Context, minuteID string) ([]persistence.ActionItem, error) {
	if _, err := s.minutes.GetMinute(ctx, minuteID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.minutes.ListActionItems(ctx, minuteID)
}

func normalizeActionItemInput(input ActionItemInput) (ActionItemInput, *ValidationError) {
	vErr := &ValidationError{}
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		vErr.add("description", "description is required")
	}
	if input.Status == "" {
		input.Status = persistence.ActionPending
	}
	switch input.Status {
	case persistence.ActionPending, persistence.ActionInProgress, persistence.ActionDone:
	default:
		vErr.add("status", "status must be Pending, InProgress or Done")
	}
	if input.AssigneeLabel != nil {
		trimmed := strings.TrimSpace(*input.AssigneeLabel)
		if trimmed == "" {
			input.AssigneeLabel = nil
		} else {
			input.AssigneeLabel = &trimmed
		}
	}
	return input, vErr
}
