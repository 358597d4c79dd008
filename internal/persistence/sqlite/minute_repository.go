package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/meetingroom/internal/persistence"
)

// MinuteRepository implements persistence.MinuteRepository using SQLite.
type MinuteRepository struct {
	store *Store
}

// NewMinuteRepository creates a new SQLite minute repository.
func NewMinuteRepository(store *Store) *MinuteRepository {
	return &MinuteRepository{store: store}
}

const minuteColumns = "id, meeting_id, creator_id, notes, discussion, decisions, created_at, updated_at"

// CreateMinute inserts the minutes record for a meeting. The meeting_id
// UNIQUE constraint surfaces as ErrDuplicate when minutes already exist.
func (r *MinuteRepository) CreateMinute(ctx context.Context, minute persistence.Minute) error {
	if minute.ID == "" || minute.MeetingID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO minutes (id, meeting_id, creator_id, notes, discussion, decisions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		minute.ID,
		minute.MeetingID,
		minute.CreatorID,
		minute.Notes,
		minute.Discussion,
		minute.Decisions,
		fmtTime(minute.CreatedAt),
		fmtTime(minute.UpdatedAt),
	)
	return mapError(err)
}

// GetMinute retrieves a minutes record by id.
func (r *MinuteRepository) GetMinute(ctx context.Context, id string) (persistence.Minute, error) {
	if id == "" {
		return persistence.Minute{}, persistence.ErrNotFound
	}
	row := r.store.db.QueryRowContext(ctx, "SELECT "+minuteColumns+" FROM minutes WHERE id = ?", id)
	return scanMinute(row)
}

// GetMinuteByMeeting retrieves the minutes record attached to a meeting.
func (r *MinuteRepository) GetMinuteByMeeting(ctx context.Context, meetingID string) (persistence.Minute, error) {
	if meetingID == "" {
		return persistence.Minute{}, persistence.ErrNotFound
	}
	row := r.store.db.QueryRowContext(ctx, "SELECT "+minuteColumns+" FROM minutes WHERE meeting_id = ?", meetingID)
	return scanMinute(row)
}

// UpdateMinute rewrites the text fields of a minutes record.
func (r *MinuteRepository) UpdateMinute(ctx context.Context, minute persistence.Minute) error {
	query := `
		UPDATE minutes
		SET notes = ?, discussion = ?, decisions = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.store.db.ExecContext(ctx, query,
		minute.Notes,
		minute.Discussion,
		minute.Decisions,
		fmtTime(minute.UpdatedAt),
		minute.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

const actionItemColumns = "id, minute_id, description, assignee_id, assignee_label, due_date, status, created_at, updated_at"

// CreateActionItem inserts a follow-up item under a minutes record.
func (r *MinuteRepository) CreateActionItem(ctx context.Context, item persistence.ActionItem) error {
	if item.ID == "" || item.MinuteID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO action_items (id, minute_id, description, assignee_id, assignee_label, due_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		item.ID,
		item.MinuteID,
		item.Description,
		nullString(item.AssigneeID),
		nullString(item.AssigneeLabel),
		nullTime(item.DueDate),
		item.Status,
		fmtTime(item.CreatedAt),
		fmtTime(item.UpdatedAt),
	)
	return mapError(err)
}

// GetActionItem retrieves an action item by id.
func (r *MinuteRepository) GetActionItem(ctx context.Context, id string) (persistence.ActionItem, error) {
	if id == "" {
		return persistence.ActionItem{}, persistence.ErrNotFound
	}
	row := r.store.db.QueryRowContext(ctx, "SELECT "+actionItemColumns+" FROM action_items WHERE id = ?", id)
	return scanActionItem(row)
}

// UpdateActionItem rewrites an action item.
func (r *MinuteRepository) UpdateActionItem(ctx context.Context, item persistence.ActionItem) error {
	query := `
		UPDATE action_items
		SET description = ?, assignee_id = ?, assignee_label = ?, due_date = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.store.db.ExecContext(ctx, query,
		item.Description,
		nullString(item.AssigneeID),
		nullString(item.AssigneeLabel),
		nullTime(item.DueDate),
		item.Status,
		fmtTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteActionItem removes an action item.
func (r *MinuteRepository) DeleteActionItem(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM action_items WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListActionItems returns the action items under a minutes record in
// creation order.
func (r *MinuteRepository) ListActionItems(ctx context.Context, minuteID string) ([]persistence.ActionItem, error) {
	query := "SELECT " + actionItemColumns + " FROM action_items WHERE minute_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.store.db.QueryContext(ctx, query, minuteID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []persistence.ActionItem
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func scanMinute(row rowScanner) (persistence.Minute, error) {
	var minute persistence.Minute
	var createdAt, updatedAt string

	err := row.Scan(
		&minute.ID,
		&minute.MeetingID,
		&minute.CreatorID,
		&minute.Notes,
		&minute.Discussion,
		&minute.Decisions,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Minute{}, mapError(err)
	}

	if minute.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Minute{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if minute.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Minute{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return minute, nil
}

func scanActionItem(row rowScanner) (persistence.ActionItem, error) {
	var item persistence.ActionItem
	var assigneeID, assigneeLabel, dueDate sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&item.ID,
		&item.MinuteID,
		&item.Description,
		&assigneeID,
		&assigneeLabel,
		&dueDate,
		&item.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.ActionItem{}, mapError(err)
	}

	item.AssigneeID = stringPtr(assigneeID)
	item.AssigneeLabel = stringPtr(assigneeLabel)
	if dueDate.Valid {
		if item.DueDate, err = parseTimePtr(dueDate.String); err != nil {
			return persistence.ActionItem{}, fmt.Errorf("failed to parse due_date: %w", err)
		}
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.ActionItem{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.ActionItem{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return item, nil
}
