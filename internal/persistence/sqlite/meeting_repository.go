package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite.
type MeetingRepository struct {
	store *Store
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(store *Store) *MeetingRepository {
	return &MeetingRepository{store: store}
}

const meetingColumns = "id, room_id, organizer_id, title, agenda, start_time, end_time, status, created_at, updated_at"

// CreateMeeting inserts a meeting after confirming the room window is free.
// The overlap check and the insert share one transaction; the single-writer
// pool keeps concurrent bookings from both observing a free window.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if !meeting.End.After(meeting.Start) {
		return persistence.ErrConstraintViolation
	}

	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		conflicts, err := countOverlapsTx(tx, meeting.RoomID, meeting.Start, meeting.End, "")
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return persistence.ErrBookingConflict
		}

		query := `
			INSERT INTO meetings (id, room_id, organizer_id, title, agenda, start_time, end_time, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.Exec(query,
			meeting.ID,
			meeting.RoomID,
			meeting.OrganizerID,
			meeting.Title,
			nullString(meeting.Agenda),
			fmtTime(meeting.Start),
			fmtTime(meeting.End),
			string(meeting.Status),
			fmtTime(meeting.CreatedAt),
			fmtTime(meeting.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdateMeeting rewrites a meeting row. When checkConflict is set the room
// overlap check re-runs inside the same transaction, excluding the meeting's
// own id so it never conflicts with itself.
func (r *MeetingRepository) UpdateMeeting(ctx context.Context, meeting persistence.Meeting, checkConflict bool) error {
	if meeting.ID == "" {
		return persistence.ErrNotFound
	}
	if !meeting.End.After(meeting.Start) {
		return persistence.ErrConstraintViolation
	}

	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		if checkConflict {
			conflicts, err := countOverlapsTx(tx, meeting.RoomID, meeting.Start, meeting.End, meeting.ID)
			if err != nil {
				return err
			}
			if conflicts > 0 {
				return persistence.ErrBookingConflict
			}
		}

		query := `
			UPDATE meetings
			SET room_id = ?, title = ?, agenda = ?, start_time = ?, end_time = ?, status = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := tx.Exec(query,
			meeting.RoomID,
			meeting.Title,
			nullString(meeting.Agenda),
			fmtTime(meeting.Start),
			fmtTime(meeting.End),
			string(meeting.Status),
			fmtTime(meeting.UpdatedAt),
			meeting.ID,
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
	})
}

// UpdateMeetingStatus rewrites only the status column.
func (r *MeetingRepository) UpdateMeetingStatus(ctx context.Context, id string, status booking.Status) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE meetings SET status = ?, updated_at = ? WHERE id = ?",
		string(status), fmtTime(time.Now()), id)
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

// GetMeeting retrieves a meeting by id.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	row := r.store.db.QueryRowContext(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE id = ?", id)
	return scanMeeting(row)
}

// ListMeetings lists meetings matching the provided filter, ordered by start.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	query, args := buildMeetingListQuery(filter)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return meetings, nil
}

// DeleteMeeting removes the meeting and its attendees, minutes, action items
// and attachments in one transaction.
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM action_items WHERE minute_id IN (SELECT id FROM minutes WHERE meeting_id = ?)`,
			`DELETE FROM attachments WHERE minute_id IN (SELECT id FROM minutes WHERE meeting_id = ?)`,
			`DELETE FROM attachments WHERE meeting_id = ?`,
			`DELETE FROM minutes WHERE meeting_id = ?`,
			`DELETE FROM meeting_attendees WHERE meeting_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt, id); err != nil {
				return mapError(err)
			}
		}

		result, err := tx.Exec("DELETE FROM meetings WHERE id = ?", id)
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
	})
}

// OverlappingRoomIDs returns the ids of rooms with at least one active
// meeting intersecting [from, to). Availability listings derive Free/Busy
// from this query so a single overlap rule serves bookings and reports.
func (r *MeetingRepository) OverlappingRoomIDs(ctx context.Context, from, to time.Time, roomID *string) ([]string, error) {
	query := `
		SELECT DISTINCT room_id
		FROM meetings
		WHERE status IN ('Scheduled', 'Started')
		  AND start_time < ?
		  AND end_time > ?
	`
	args := []any{fmtTime(to), fmtTime(from)}
	if roomID != nil {
		query += " AND room_id = ?"
		args = append(args, *roomID)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

// AddAttendee inserts an attendee row for a meeting.
func (r *MeetingRepository) AddAttendee(ctx context.Context, attendee persistence.Attendee) error {
	if attendee.ID == "" || attendee.MeetingID == "" || attendee.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO meeting_attendees (id, meeting_id, user_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		attendee.ID,
		attendee.MeetingID,
		attendee.UserID,
		attendee.Status,
		fmtTime(attendee.CreatedAt),
	)
	return mapError(err)
}

// ListAttendees returns the attendees of a meeting ordered by invitation time.
func (r *MeetingRepository) ListAttendees(ctx context.Context, meetingID string) ([]persistence.Attendee, error) {
	query := `
		SELECT id, meeting_id, user_id, status, created_at
		FROM meeting_attendees
		WHERE meeting_id = ?
		ORDER BY created_at ASC, user_id ASC
	`
	rows, err := r.store.db.QueryContext(ctx, query, meetingID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var attendees []persistence.Attendee
	for rows.Next() {
		var attendee persistence.Attendee
		var createdAt string
		if err := rows.Scan(&attendee.ID, &attendee.MeetingID, &attendee.UserID, &attendee.Status, &createdAt); err != nil {
			return nil, mapError(err)
		}
		if attendee.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return attendees, nil
}

// UpdateAttendeeStatus records an invitation response.
func (r *MeetingRepository) UpdateAttendeeStatus(ctx context.Context, meetingID, userID, status string) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE meeting_attendees SET status = ? WHERE meeting_id = ? AND user_id = ?",
		status, meetingID, userID)
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

// RemoveAttendee withdraws an invitation.
func (r *MeetingRepository) RemoveAttendee(ctx context.Context, meetingID, userID string) error {
	result, err := r.store.db.ExecContext(ctx,
		"DELETE FROM meeting_attendees WHERE meeting_id = ? AND user_id = ?",
		meetingID, userID)
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

// countOverlapsTx counts active meetings in the room whose windows intersect
// [start, end), excluding excludeID when set. The predicate is the canonical
// s1 < e2 AND e1 > s2 half-open interval test.
func countOverlapsTx(tx *sql.Tx, roomID string, start, end time.Time, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM meetings
		WHERE room_id = ?
		  AND status IN ('Scheduled', 'Started')
		  AND start_time < ?
		  AND end_time > ?
	`
	args := []any{roomID, fmtTime(end), fmtTime(start)}
	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}

	var count int
	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func buildMeetingListQuery(filter persistence.MeetingFilter) (string, []any) {
	query := "SELECT DISTINCT m.id, m.room_id, m.organizer_id, m.title, m.agenda, m.start_time, m.end_time, m.status, m.created_at, m.updated_at FROM meetings m"

	var conditions []string
	var args []any

	if filter.ParticipantID != nil {
		query += " LEFT JOIN meeting_attendees ma ON m.id = ma.meeting_id"
		conditions = append(conditions, "(m.organizer_id = ? OR ma.user_id = ?)")
		args = append(args, *filter.ParticipantID, *filter.ParticipantID)
	}

	if filter.RoomID != nil {
		conditions = append(conditions, "m.room_id = ?")
		args = append(args, *filter.RoomID)
	}

	if filter.StartsBefore != nil {
		conditions = append(conditions, "m.start_time < ?")
		args = append(args, fmtTime(*filter.StartsBefore))
	}

	if filter.EndsAfter != nil {
		conditions = append(conditions, "m.end_time > ?")
		args = append(args, fmtTime(*filter.EndsAfter))
	}

	if q := strings.TrimSpace(filter.TitleQuery); q != "" {
		conditions = append(conditions, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, fmt.Sprintf("m.status IN (%s)", strings.Join(placeholders, ",")))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY m.start_time ASC, m.id ASC"
	return query, args
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var meeting persistence.Meeting
	var agenda sql.NullString
	var status, startTime, endTime, createdAt, updatedAt string

	err := row.Scan(
		&meeting.ID,
		&meeting.RoomID,
		&meeting.OrganizerID,
		&meeting.Title,
		&agenda,
		&startTime,
		&endTime,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Meeting{}, mapError(err)
	}

	meeting.Agenda = stringPtr(agenda)
	meeting.Status = booking.Status(status)
	if meeting.Start, err = parseTime(startTime); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if meeting.End, err = parseTime(endTime); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if meeting.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return meeting, nil
}
