package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// AttachmentService manages file uploads attached to meetings and minutes.
type AttachmentService struct {
	attachments persistence.AttachmentRepository
	meetings    persistence.MeetingRepository
	minutes     persistence.MinuteRepository
	maxBytes    int64
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttachmentService wires dependencies for the attachment service.
func NewAttachmentService(
	attachments persistence.AttachmentRepository,
	meetings persistence.MeetingRepository,
	minutes persistence.MinuteRepository,
	maxBytes int64,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttachmentService{
		attachments: attachments,
		meetings:    meetings,
		minutes:     minutes,
		maxBytes:    maxBytes,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Upload stores a file against a meeting or a minutes record.
func (s *AttachmentService) Upload(ctx context.Context, params UploadAttachmentParams) (persistence.Attachment, error) {
	vErr := &ValidationError{}
	fileName := strings.TrimSpace(params.FileName)
	if fileName == "" {
		vErr.add("file_name", "file name is required")
	}
	if len(params.Content) == 0 {
		vErr.add("content", "file is empty")
	}
	if params.MeetingID == nil && params.MinuteID == nil {
		vErr.add("target", "meeting_id or minute_id is required")
	}
	if vErr.HasErrors() {
		return persistence.Attachment{}, vErr
	}
	if int64(len(params.Content)) > s.maxBytes {
		return persistence.Attachment{}, ErrAttachmentTooLarge
	}

	if params.MeetingID != nil {
		if _, err := s.meetings.GetMeeting(ctx, *params.MeetingID); err != nil {
			return persistence.Attachment{}, mapRepositoryError(err)
		}
	}
	if params.MinuteID != nil {
		if _, err := s.minutes.GetMinute(ctx, *params.MinuteID); err != nil {
			return persistence.Attachment{}, mapRepositoryError(err)
		}
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment := persistence.Attachment{
		ID:          s.idGenerator(),
		MeetingID:   params.MeetingID,
		MinuteID:    params.MinuteID,
		FileName:    fileName,
		ContentType: contentType,
		Content:     params.Content,
		SizeBytes:   int64(len(params.Content)),
		UploadedBy:  params.Principal.UserID,
		CreatedAt:   s.now(),
	}

	if err := s.attachments.CreateAttachment(ctx, attachment); err != nil {
		return persistence.Attachment{}, mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "AttachmentService", "Upload").InfoContext(ctx, "attachment stored",
		"attachment_id", attachment.ID, "size_bytes", attachment.SizeBytes)
	return attachment, nil
}

// Download returns a stored file with its content.
func (s *AttachmentService) Download(ctx context.Context, attachmentID string) (persistence.Attachment, error) {
	attachment, err := s.attachments.GetAttachment(ctx, attachmentID)
	if err != nil {
		return persistence.Attachment{}, mapRepositoryError(err)
	}
	return attachment, nil
}

// ListForMeeting returns attachment metadata for a meeting and its minutes.
func (s *AttachmentService) ListForMeeting(ctx context.Context, meetingID string) ([]persistence.Attachment, error) {
	if _, err := s.meetings.GetMeeting(ctx, meetingID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.attachments.ListAttachmentsForMeeting(ctx, meetingID)
}

// Delete removes an attachment. Uploader or admin only.
func (s *AttachmentService) Delete(ctx context.Context, principal Principal, attachmentID string) error {
	attachment, err := s.attachments.GetAttachment(ctx, attachmentID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !principal.IsAdmin && principal.UserID != attachment.UploadedBy {
		return ErrUnauthorized
	}
	if err := s.attachments.DeleteAttachment(ctx, attachmentID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}
