package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
)

var errMissingFilePart = errors.New("a multipart \"file\" part is required")

type attachmentService interface {
	Upload(ctx context.Context, params application.UploadAttachmentParams) (persistence.Attachment, error)
	Download(ctx context.Context, attachmentID string) (persistence.Attachment, error)
	ListForMeeting(ctx context.Context, meetingID string) ([]persistence.Attachment, error)
	Delete(ctx context.Context, principal application.Principal, attachmentID string) error
}

type AttachmentHandler struct {
	service   attachmentService
	maxBytes  int64
	responder responder
	logger    *slog.Logger
}

func NewAttachmentHandler(service attachmentService, maxBytes int64, logger *slog.Logger) *AttachmentHandler {
	base := defaultLogger(logger)
	return &AttachmentHandler{
		service:   service,
		maxBytes:  maxBytes,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *AttachmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttachmentHandler", operation, attrs...)
}

// Upload accepts a multipart form with a "file" part and a meeting_id or
// minute_id field naming the attachment target.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Upload", "principal_id", principal.UserID)

	// One extra KiB of headroom for the multipart framing itself; the
	// service enforces the exact content limit.
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1024)
	}

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.handleServiceError(r.Context(), w, application.ErrAttachmentTooLarge)
			return
		}
		logger.ErrorContext(r.Context(), "failed to parse multipart form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingFilePart)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to read upload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.UploadAttachmentParams{
		Principal:   principal,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}
	if meetingID := strings.TrimSpace(r.FormValue("meeting_id")); meetingID != "" {
		params.MeetingID = &meetingID
	}
	if minuteID := strings.TrimSpace(r.FormValue("minute_id")); minuteID != "" {
		params.MinuteID = &minuteID
	}

	attachment, err := h.service.Upload(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "upload failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("attachment_id", attachment.ID, "size_bytes", attachment.SizeBytes).InfoContext(r.Context(), "attachment stored")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, attachmentResponse{Attachment: toAttachmentDTO(attachment)})
}

// Download streams the stored blob back to the client.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request, attachmentID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Download", "attachment_id", attachmentID)

	attachment, err := h.service.Download(r.Context(), attachmentID)
	if err != nil {
		logger.ErrorContext(r.Context(), "download failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(attachment.Content); err != nil {
		logger.ErrorContext(r.Context(), "failed to stream attachment", "error", err)
	}
}

func (h *AttachmentHandler) ListForMeeting(w http.ResponseWriter, r *http.Request, meetingID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListForMeeting", "meeting_id", meetingID)

	attachments, err := h.service.ListForMeeting(r.Context(), meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "attachment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttachmentsResponse{Attachments: toAttachmentDTOs(attachments)})
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request, attachmentID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "attachment_id", attachmentID)

	if err := h.service.Delete(r.Context(), principal, attachmentID); err != nil {
		logger.ErrorContext(r.Context(), "attachment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attachment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type attachmentResponse struct {
	Attachment attachmentDTO `json:"attachment"`
}

type listAttachmentsResponse struct {
	Attachments []attachmentDTO `json:"attachments"`
}
