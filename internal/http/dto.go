package http

import (
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
)

func fmtTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := fmtTimestamp(*t)
	return &formatted
}

type userDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toUserDTO(user persistence.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: fmtTimestamp(user.CreatedAt),
		UpdatedAt: fmtTimestamp(user.UpdatedAt),
	}
}

func toUserDTOs(users []persistence.User) []userDTO {
	if len(users) == 0 {
		return nil
	}
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

type roomDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity"`
	Location  string  `json:"location"`
	Features  *string `json:"features,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Location:  room.Location,
		Features:  room.Features,
		CreatedAt: fmtTimestamp(room.CreatedAt),
		UpdatedAt: fmtTimestamp(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []persistence.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

// roomAvailabilityDTO echoes the queried window next to each room's state so
// clients can render the report without carrying the request around.
type roomAvailabilityDTO struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	From     string `json:"from_utc"`
	To       string `json:"to_utc"`
	Status   string `json:"status"`
}

func toRoomAvailabilityDTOs(entries []application.RoomAvailability, from, to time.Time) []roomAvailabilityDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]roomAvailabilityDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, roomAvailabilityDTO{
			RoomID:   entry.Room.ID,
			RoomName: entry.Room.Name,
			From:     fmtTimestamp(from),
			To:       fmtTimestamp(to),
			Status:   string(entry.Availability),
		})
	}
	return out
}

type meetingDTO struct {
	ID          string  `json:"id"`
	RoomID      string  `json:"room_id"`
	OrganizerID string  `json:"organizer_id"`
	Title       string  `json:"title"`
	Agenda      *string `json:"agenda,omitempty"`
	Start       string  `json:"start_utc"`
	End         string  `json:"end_utc"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toMeetingDTO(meeting persistence.Meeting) meetingDTO {
	return meetingDTO{
		ID:          meeting.ID,
		RoomID:      meeting.RoomID,
		OrganizerID: meeting.OrganizerID,
		Title:       meeting.Title,
		Agenda:      meeting.Agenda,
		Start:       fmtTimestamp(meeting.Start),
		End:         fmtTimestamp(meeting.End),
		Status:      string(meeting.Status),
		CreatedAt:   fmtTimestamp(meeting.CreatedAt),
		UpdatedAt:   fmtTimestamp(meeting.UpdatedAt),
	}
}

func toMeetingDTOs(meetings []persistence.Meeting) []meetingDTO {
	if len(meetings) == 0 {
		return nil
	}
	out := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, toMeetingDTO(meeting))
	}
	return out
}

type attendeeDTO struct {
	ID        string `json:"id"`
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toAttendeeDTOs(attendees []persistence.Attendee) []attendeeDTO {
	if len(attendees) == 0 {
		return nil
	}
	out := make([]attendeeDTO, 0, len(attendees))
	for _, attendee := range attendees {
		out = append(out, attendeeDTO{
			ID:        attendee.ID,
			MeetingID: attendee.MeetingID,
			UserID:    attendee.UserID,
			Status:    attendee.Status,
			CreatedAt: fmtTimestamp(attendee.CreatedAt),
		})
	}
	return out
}

type minuteDTO struct {
	ID         string `json:"id"`
	MeetingID  string `json:"meeting_id"`
	CreatorID  string `json:"creator_id"`
	Notes      string `json:"notes"`
	Discussion string `json:"discussion"`
	Decisions  string `json:"decisions"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toMinuteDTO(minute persistence.Minute) minuteDTO {
	return minuteDTO{
		ID:         minute.ID,
		MeetingID:  minute.MeetingID,
		CreatorID:  minute.CreatorID,
		Notes:      minute.Notes,
		Discussion: minute.Discussion,
		Decisions:  minute.Decisions,
		CreatedAt:  fmtTimestamp(minute.CreatedAt),
		UpdatedAt:  fmtTimestamp(minute.UpdatedAt),
	}
}

type actionItemDTO struct {
	ID            string  `json:"id"`
	MinuteID      string  `json:"minute_id"`
	Description   string  `json:"description"`
	AssigneeID    *string `json:"assignee_id,omitempty"`
	AssigneeLabel *string `json:"assignee_label,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toActionItemDTO(item persistence.ActionItem) actionItemDTO {
	return actionItemDTO{
		ID:            item.ID,
		MinuteID:      item.MinuteID,
		Description:   item.Description,
		AssigneeID:    item.AssigneeID,
		AssigneeLabel: item.AssigneeLabel,
		DueDate:       fmtTimestampPtr(item.DueDate),
		Status:        item.Status,
		CreatedAt:     fmtTimestamp(item.CreatedAt),
		UpdatedAt:     fmtTimestamp(item.UpdatedAt),
	}
}

func toActionItemDTOs(items []persistence.ActionItem) []actionItemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]actionItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toActionItemDTO(item))
	}
	return out
}

type attachmentDTO struct {
	ID          string  `json:"id"`
	MeetingID   *string `json:"meeting_id,omitempty"`
	MinuteID    *string `json:"minute_id,omitempty"`
	FileName    string  `json:"file_name"`
	ContentType string  `json:"content_type"`
	SizeBytes   int64   `json:"size_bytes"`
	UploadedBy  string  `json:"uploaded_by"`
	CreatedAt   string  `json:"created_at"`
}

func toAttachmentDTO(attachment persistence.Attachment) attachmentDTO {
	return attachmentDTO{
		ID:          attachment.ID,
		MeetingID:   attachment.MeetingID,
		MinuteID:    attachment.MinuteID,
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		UploadedBy:  attachment.UploadedBy,
		CreatedAt:   fmtTimestamp(attachment.CreatedAt),
	}
}

func toAttachmentDTOs(attachments []persistence.Attachment) []attachmentDTO {
	if len(attachments) == 0 {
		return nil
	}
	out := make([]attachmentDTO, 0, len(attachments))
	for _, attachment := range attachments {
		out = append(out, toAttachmentDTO(attachment))
	}
	return out
}

type notificationDTO struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Message      string  `json:"message"`
	Link         *string `json:"link,omitempty"`
	MeetingID    *string `json:"meeting_id,omitempty"`
	ActionItemID *string `json:"action_item_id,omitempty"`
	IsRead       bool    `json:"is_read"`
	CreatedAt    string  `json:"created_at"`
}

func toNotificationDTO(notification persistence.Notification) notificationDTO {
	return notificationDTO{
		ID:           notification.ID,
		Type:         notification.Type,
		Title:        notification.Title,
		Message:      notification.Message,
		Link:         notification.Link,
		MeetingID:    notification.MeetingID,
		ActionItemID: notification.ActionItemID,
		IsRead:       notification.IsRead,
		CreatedAt:    fmtTimestamp(notification.CreatedAt),
	}
}

func toNotificationDTOs(notifications []persistence.Notification) []notificationDTO {
	if len(notifications) == 0 {
		return nil
	}
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, toNotificationDTO(notification))
	}
	return out
}

type roomUsageDTO struct {
	RoomID       string  `json:"room_id"`
	RoomName     string  `json:"room_name"`
	MeetingCount int     `json:"meeting_count"`
	BookedHours  float64 `json:"booked_hours"`
}

func toRoomUsageDTOs(usage []persistence.RoomUsage) []roomUsageDTO {
	if len(usage) == 0 {
		return nil
	}
	out := make([]roomUsageDTO, 0, len(usage))
	for _, row := range usage {
		out = append(out, roomUsageDTO{
			RoomID:       row.RoomID,
			RoomName:     row.RoomName,
			MeetingCount: row.MeetingCount,
			BookedHours:  row.BookedHours,
		})
	}
	return out
}
