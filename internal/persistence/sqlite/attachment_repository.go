package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/meetingroom/internal/persistence"
)

// AttachmentRepository implements persistence.AttachmentRepository using SQLite.
type AttachmentRepository struct {
	store *Store
}

// NewAttachmentRepository creates a new SQLite attachment repository.
func NewAttachmentRepository(store *Store) *AttachmentRepository {
	return &AttachmentRepository{store: store}
}

// CreateAttachment stores an uploaded file.
func (r *AttachmentRepository) CreateAttachment(ctx context.Context, attachment persistence.Attachment) error {
	if attachment.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if attachment.MeetingID == nil && attachment.MinuteID == nil {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO attachments (id, meeting_id, minute_id, file_name, content_type, content, size_bytes, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		attachment.ID,
		nullString(attachment.MeetingID),
		nullString(attachment.MinuteID),
		attachment.FileName,
		attachment.ContentType,
		attachment.Content,
		attachment.SizeBytes,
		attachment.UploadedBy,
		fmtTime(attachment.CreatedAt),
	)
	return mapError(err)
}

// GetAttachment retrieves an attachment by id, including its content.
func (r *AttachmentRepository) GetAttachment(ctx context.Context, id string) (persistence.Attachment, error) {
	if id == "" {
		return persistence.Attachment{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, meeting_id, minute_id, file_name, content_type, content, size_bytes, uploaded_by, created_at
		FROM attachments
		WHERE id = ?
	`
	var attachment persistence.Attachment
	var meetingID, minuteID sql.NullString
	var createdAt string

	err := r.store.db.QueryRowContext(ctx, query, id).Scan(
		&attachment.ID,
		&meetingID,
		&minuteID,
		&attachment.FileName,
		&attachment.ContentType,
		&attachment.Content,
		&attachment.SizeBytes,
		&attachment.UploadedBy,
		&createdAt,
	)
	if err != nil {
		return persistence.Attachment{}, mapError(err)
	}

	attachment.MeetingID = stringPtr(meetingID)
	attachment.MinuteID = stringPtr(minuteID)
	if attachment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Attachment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return attachment, nil
}

// ListAttachmentsForMeeting returns attachment metadata for a meeting,
// including attachments on the meeting's minutes. Content is left empty so
// listings stay cheap; GetAttachment loads it for downloads.
func (r *AttachmentRepository) ListAttachmentsForMeeting(ctx context.Context, meetingID string) ([]persistence.Attachment, error) {
	query := `
		SELECT id, meeting_id, minute_id, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM attachments
		WHERE meeting_id = ?
		   OR minute_id IN (SELECT id FROM minutes WHERE meeting_id = ?)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.store.db.QueryContext(ctx, query, meetingID, meetingID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var attachments []persistence.Attachment
	for rows.Next() {
		var attachment persistence.Attachment
		var mID, minID sql.NullString
		var createdAt string
		err := rows.Scan(
			&attachment.ID,
			&mID,
			&minID,
			&attachment.FileName,
			&attachment.ContentType,
			&attachment.SizeBytes,
			&attachment.UploadedBy,
			&createdAt,
		)
		if err != nil {
			return nil, mapError(err)
		}
		attachment.MeetingID = stringPtr(mID)
		attachment.MinuteID = stringPtr(minID)
		if attachment.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		attachments = append(attachments, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return attachments, nil
}

// DeleteAttachment removes an attachment.
func (r *AttachmentRepository) DeleteAttachment(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
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
