package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

func newRoomServiceFixture() (*RoomService, *roomRepoStub, *meetingRepoStub) {
	rooms := newRoomRepoStub()
	meetings := newMeetingRepoStub()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := NewRoomService(rooms, meetings, sequence("room-1"), func() time.Time { return now }, nil)
	return svc, rooms, meetings
}

func TestRoomService_CreateRoom(t *testing.T) {
	t.Parallel()

	t.Run("admin creates a room", func(t *testing.T) {
		t.Parallel()

		svc, rooms, _ := newRoomServiceFixture()
		room, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal(),
			Input:     RoomInput{Name: " Sakura ", Capacity: 8, Location: "Floor 3"},
		})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if room.Name != "Sakura" {
			t.Errorf("Expected trimmed name, got %q", room.Name)
		}
		if _, ok := rooms.rooms["room-1"]; !ok {
			t.Error("Expected room persisted")
		}
	})

	t.Run("employee is rejected", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newRoomServiceFixture()
		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{UserID: "emp-1"},
			Input:     RoomInput{Name: "Sakura", Capacity: 8},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newRoomServiceFixture()
		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal(),
			Input:     RoomInput{Name: "Sakura", Capacity: 0},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})
}

func TestRoomService_Availability(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	t.Run("marks overlapped rooms busy", func(t *testing.T) {
		t.Parallel()

		svc, rooms, meetings := newRoomServiceFixture()
		rooms.rooms["room-1"] = persistence.Room{ID: "room-1", Name: "Sakura"}
		rooms.rooms["room-2"] = persistence.Room{ID: "room-2", Name: "Fuji"}
		meetings.busyRoomIDs = []string{"room-1"}

		result, err := svc.Availability(context.Background(), from, to, nil)
		if err != nil {
			t.Fatalf("Availability failed: %v", err)
		}
		if len(result) != 2 {
			t.Fatalf("Expected 2 rooms, got %d", len(result))
		}
		byID := make(map[string]booking.Availability)
		for _, entry := range result {
			byID[entry.Room.ID] = entry.Availability
		}
		if byID["room-1"] != booking.AvailabilityBusy {
			t.Errorf("Expected room-1 busy, got %s", byID["room-1"])
		}
		if byID["room-2"] != booking.AvailabilityFree {
			t.Errorf("Expected room-2 free, got %s", byID["room-2"])
		}
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newRoomServiceFixture()
		_, err := svc.Availability(context.Background(), to, from, nil)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("unknown room yields not found", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newRoomServiceFixture()
		roomID := "ghost"
		_, err := svc.Availability(context.Background(), from, to, &roomID)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}
