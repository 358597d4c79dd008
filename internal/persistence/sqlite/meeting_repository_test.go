package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

func newTestMeeting(id, roomID, organizerID string, start, end time.Time) persistence.Meeting {
	now := time.Now().UTC()
	return persistence.Meeting{
		ID:          id,
		RoomID:      roomID,
		OrganizerID: organizerID,
		Title:       "Sprint planning",
		Start:       start,
		End:         end,
		Status:      booking.StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func setupMeetingRepositoryTest(t *testing.T) (*MeetingRepository, *Store) {
	t.Helper()

	store := setupStoreTest(t)
	seedUser(t, store, "user1")
	seedRoom(t, store, "room1")
	return NewMeetingRepository(store), store
}

func TestMeetingRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	meeting := newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))
	agenda := "Review backlog"
	meeting.Agenda = &agenda

	if err := repo.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	retrieved, err := repo.GetMeeting(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if retrieved.Title != "Sprint planning" {
		t.Errorf("Expected title 'Sprint planning', got '%s'", retrieved.Title)
	}
	if retrieved.Agenda == nil || *retrieved.Agenda != "Review backlog" {
		t.Errorf("Expected agenda 'Review backlog', got %v", retrieved.Agenda)
	}
	if !retrieved.Start.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, retrieved.Start)
	}
	if retrieved.Status != booking.StatusScheduled {
		t.Errorf("Expected status Scheduled, got %s", retrieved.Status)
	}
}

func TestMeetingRepository_CreateMeeting_Conflict(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	// Overlaps the middle of the existing booking.
	err := repo.CreateMeeting(ctx, newTestMeeting("m2", "room1", "user1", start.Add(30*time.Minute), start.Add(90*time.Minute)))
	if !errors.Is(err, persistence.ErrBookingConflict) {
		t.Fatalf("Expected ErrBookingConflict, got %v", err)
	}
}

func TestMeetingRepository_CreateMeeting_AdjacentWindowsAllowed(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	// Back-to-back booking starting exactly when the first ends.
	if err := repo.CreateMeeting(ctx, newTestMeeting("m2", "room1", "user1", start.Add(time.Hour), start.Add(2*time.Hour))); err != nil {
		t.Fatalf("Expected adjacent booking to succeed, got %v", err)
	}
}

func TestMeetingRepository_CreateMeeting_CancelledDoesNotBlock(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	cancelled := newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))
	cancelled.Status = booking.StatusCancelled
	if err := repo.CreateMeeting(ctx, cancelled); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	if err := repo.CreateMeeting(ctx, newTestMeeting("m2", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("Expected booking over cancelled meeting to succeed, got %v", err)
	}
}

func TestMeetingRepository_CreateMeeting_OtherRoomDoesNotBlock(t *testing.T) {
	repo, store := setupMeetingRepositoryTest(t)
	seedRoom(t, store, "room2")
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	if err := repo.CreateMeeting(ctx, newTestMeeting("m2", "room2", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("Expected booking in another room to succeed, got %v", err)
	}
}

func TestMeetingRepository_CreateMeeting_InvalidWindow(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start))
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("Expected ErrConstraintViolation for zero-length window, got %v", err)
	}
}

func TestMeetingRepository_UpdateMeeting_SelfExclusion(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	meeting := newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))
	if err := repo.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	// Widening the same meeting's window must not conflict with itself.
	meeting.End = start.Add(90 * time.Minute)
	if err := repo.UpdateMeeting(ctx, meeting, true); err != nil {
		t.Fatalf("UpdateMeeting failed: %v", err)
	}

	retrieved, err := repo.GetMeeting(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if !retrieved.End.Equal(start.Add(90 * time.Minute)) {
		t.Errorf("Expected widened end, got %v", retrieved.End)
	}
}

func TestMeetingRepository_UpdateMeeting_ConflictWithOther(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	second := newTestMeeting("m2", "room1", "user1", start.Add(2*time.Hour), start.Add(3*time.Hour))
	if err := repo.CreateMeeting(ctx, second); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	second.Start = start.Add(30 * time.Minute)
	second.End = start.Add(90 * time.Minute)
	err := repo.UpdateMeeting(ctx, second, true)
	if !errors.Is(err, persistence.ErrBookingConflict) {
		t.Fatalf("Expected ErrBookingConflict, got %v", err)
	}
}

func TestMeetingRepository_UpdateMeetingStatus(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	if err := repo.UpdateMeetingStatus(ctx, "m1", booking.StatusStarted); err != nil {
		t.Fatalf("UpdateMeetingStatus failed: %v", err)
	}
	retrieved, err := repo.GetMeeting(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if retrieved.Status != booking.StatusStarted {
		t.Errorf("Expected status Started, got %s", retrieved.Status)
	}

	if err := repo.UpdateMeetingStatus(ctx, "missing", booking.StatusEnded); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown meeting, got %v", err)
	}
}

func TestMeetingRepository_ListMeetings_Filters(t *testing.T) {
	repo, store := setupMeetingRepositoryTest(t)
	seedUser(t, store, "user2")
	seedRoom(t, store, "room2")
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", day.Add(9*time.Hour), day.Add(10*time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	standups := newTestMeeting("m2", "room2", "user2", day.Add(11*time.Hour), day.Add(12*time.Hour))
	standups.Title = "Daily standup"
	if err := repo.CreateMeeting(ctx, standups); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	if err := repo.AddAttendee(ctx, persistence.Attendee{
		ID:        "a1",
		MeetingID: "m2",
		UserID:    "user1",
		Status:    persistence.AttendeeInvited,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddAttendee failed: %v", err)
	}

	t.Run("by room", func(t *testing.T) {
		roomID := "room1"
		meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{RoomID: &roomID})
		if err != nil {
			t.Fatalf("ListMeetings failed: %v", err)
		}
		if len(meetings) != 1 || meetings[0].ID != "m1" {
			t.Errorf("Expected [m1], got %v", meetings)
		}
	})

	t.Run("by participant includes organized and attended", func(t *testing.T) {
		participantID := "user1"
		meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{ParticipantID: &participantID})
		if err != nil {
			t.Fatalf("ListMeetings failed: %v", err)
		}
		if len(meetings) != 2 {
			t.Fatalf("Expected 2 meetings, got %d", len(meetings))
		}
		if meetings[0].ID != "m1" || meetings[1].ID != "m2" {
			t.Errorf("Expected start-ordered [m1 m2], got [%s %s]", meetings[0].ID, meetings[1].ID)
		}
	})

	t.Run("by title", func(t *testing.T) {
		meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{TitleQuery: "standup"})
		if err != nil {
			t.Fatalf("ListMeetings failed: %v", err)
		}
		if len(meetings) != 1 || meetings[0].ID != "m2" {
			t.Errorf("Expected [m2], got %v", meetings)
		}
	})

	t.Run("by window", func(t *testing.T) {
		before := day.Add(10*time.Hour + 30*time.Minute)
		after := day.Add(8 * time.Hour)
		meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{StartsBefore: &before, EndsAfter: &after})
		if err != nil {
			t.Fatalf("ListMeetings failed: %v", err)
		}
		if len(meetings) != 1 || meetings[0].ID != "m1" {
			t.Errorf("Expected [m1], got %v", meetings)
		}
	})

	t.Run("by status", func(t *testing.T) {
		if err := repo.UpdateMeetingStatus(ctx, "m1", booking.StatusCancelled); err != nil {
			t.Fatalf("UpdateMeetingStatus failed: %v", err)
		}
		meetings, err := repo.ListMeetings(ctx, persistence.MeetingFilter{Statuses: []booking.Status{booking.StatusScheduled}})
		if err != nil {
			t.Fatalf("ListMeetings failed: %v", err)
		}
		if len(meetings) != 1 || meetings[0].ID != "m2" {
			t.Errorf("Expected [m2], got %v", meetings)
		}
	})
}

func TestMeetingRepository_DeleteMeeting_Cascades(t *testing.T) {
	repo, store := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	if err := repo.AddAttendee(ctx, persistence.Attendee{
		ID: "a1", MeetingID: "m1", UserID: "user1",
		Status: persistence.AttendeeInvited, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AddAttendee failed: %v", err)
	}

	now := time.Now().UTC()
	minutes := NewMinuteRepository(store)
	if err := minutes.CreateMinute(ctx, persistence.Minute{
		ID: "min1", MeetingID: "m1", CreatorID: "user1", Notes: "notes",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateMinute failed: %v", err)
	}
	if err := minutes.CreateActionItem(ctx, persistence.ActionItem{
		ID: "ai1", MinuteID: "min1", Description: "Follow up",
		Status: persistence.ActionPending, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateActionItem failed: %v", err)
	}

	meetingID := "m1"
	attachments := NewAttachmentRepository(store)
	if err := attachments.CreateAttachment(ctx, persistence.Attachment{
		ID: "att1", MeetingID: &meetingID, FileName: "agenda.pdf",
		ContentType: "application/pdf", Content: []byte("pdf"), SizeBytes: 3,
		UploadedBy: "user1", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateAttachment failed: %v", err)
	}

	if err := repo.DeleteMeeting(ctx, "m1"); err != nil {
		t.Fatalf("DeleteMeeting failed: %v", err)
	}

	if _, err := repo.GetMeeting(ctx, "m1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected meeting gone, got %v", err)
	}
	if _, err := minutes.GetMinuteByMeeting(ctx, "m1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected minutes gone, got %v", err)
	}
	if _, err := attachments.GetAttachment(ctx, "att1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected attachment gone, got %v", err)
	}
	attendees, err := repo.ListAttendees(ctx, "m1")
	if err != nil {
		t.Fatalf("ListAttendees failed: %v", err)
	}
	if len(attendees) != 0 {
		t.Errorf("Expected no attendees, got %d", len(attendees))
	}
}

func TestMeetingRepository_OverlappingRoomIDs(t *testing.T) {
	repo, store := setupMeetingRepositoryTest(t)
	seedRoom(t, store, "room2")
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	ended := newTestMeeting("m2", "room2", "user1", start, start.Add(time.Hour))
	ended.Status = booking.StatusEnded
	if err := repo.CreateMeeting(ctx, ended); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	busy, err := repo.OverlappingRoomIDs(ctx, start.Add(30*time.Minute), start.Add(90*time.Minute), nil)
	if err != nil {
		t.Fatalf("OverlappingRoomIDs failed: %v", err)
	}
	if len(busy) != 1 || busy[0] != "room1" {
		t.Errorf("Expected only room1 busy, got %v", busy)
	}

	// Disjoint window leaves every room free.
	busy, err = repo.OverlappingRoomIDs(ctx, start.Add(2*time.Hour), start.Add(3*time.Hour), nil)
	if err != nil {
		t.Fatalf("OverlappingRoomIDs failed: %v", err)
	}
	if len(busy) != 0 {
		t.Errorf("Expected no busy rooms, got %v", busy)
	}
}

func TestMeetingRepository_Attendees(t *testing.T) {
	repo, store := setupMeetingRepositoryTest(t)
	seedUser(t, store, "user2")
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateMeeting(ctx, newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	attendee := persistence.Attendee{
		ID: "a1", MeetingID: "m1", UserID: "user2",
		Status: persistence.AttendeeInvited, CreatedAt: time.Now().UTC(),
	}
	if err := repo.AddAttendee(ctx, attendee); err != nil {
		t.Fatalf("AddAttendee failed: %v", err)
	}

	// Second invitation of the same user is a duplicate.
	attendee.ID = "a2"
	if err := repo.AddAttendee(ctx, attendee); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	if err := repo.UpdateAttendeeStatus(ctx, "m1", "user2", persistence.AttendeeAccepted); err != nil {
		t.Fatalf("UpdateAttendeeStatus failed: %v", err)
	}
	attendees, err := repo.ListAttendees(ctx, "m1")
	if err != nil {
		t.Fatalf("ListAttendees failed: %v", err)
	}
	if len(attendees) != 1 || attendees[0].Status != persistence.AttendeeAccepted {
		t.Errorf("Expected one accepted attendee, got %v", attendees)
	}

	if err := repo.RemoveAttendee(ctx, "m1", "user2"); err != nil {
		t.Fatalf("RemoveAttendee failed: %v", err)
	}
	if err := repo.RemoveAttendee(ctx, "m1", "user2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for removed attendee, got %v", err)
	}
}

func TestMeetingRepository_ConcurrentCreate_OneWins(t *testing.T) {
	repo, _ := setupMeetingRepositoryTest(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	first := newTestMeeting("m1", "room1", "user1", start, start.Add(time.Hour))
	second := newTestMeeting("m2", "room1", "user1", start.Add(30*time.Minute), start.Add(90*time.Minute))

	// Both writers race for the same window; the single-writer pool plus the
	// in-transaction overlap check must let exactly one commit.
	release := make(chan struct{})
	results := make(chan error, 2)
	for _, meeting := range []persistence.Meeting{first, second} {
		meeting := meeting
		go func() {
			<-release
			results <- repo.CreateMeeting(ctx, meeting)
		}()
	}
	close(release)

	var created, conflicted int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			created++
		case errors.Is(err, persistence.ErrBookingConflict):
			conflicted++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if created != 1 || conflicted != 1 {
		t.Fatalf("Expected exactly one booking to win, got created=%d conflicted=%d", created, conflicted)
	}
}
