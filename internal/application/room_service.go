package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/booking"
	"github.com/example/meetingroom/internal/persistence"
)

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       persistence.RoomRepository
	meetings    persistence.MeetingRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService wires dependencies for the room service.
func NewRoomService(rooms persistence.RoomRepository, meetings persistence.MeetingRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		meetings:    meetings,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (persistence.Room, error) {
	if !params.Principal.IsAdmin {
		return persistence.Room{}, ErrUnauthorized
	}

	normalized := normalizeRoomInput(params.Input)
	vErr := validateRoomInput(normalized)
	if vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	now := s.now()
	room := persistence.Room{
		ID:        s.idGenerator(),
		Name:      normalized.Name,
		Capacity:  normalized.Capacity,
		Location:  normalized.Location,
		Features:  normalized.Features,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return persistence.Room{}, mapRepositoryError(err)
	}
	s.loggerWith(ctx, "CreateRoom").InfoContext(ctx, "room created", "room_id", room.ID, "name", room.Name)
	return room, nil
}

// UpdateRoom validates input and updates a room for administrators.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (persistence.Room, error) {
	if !params.Principal.IsAdmin {
		return persistence.Room{}, ErrUnauthorized
	}

	existing, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		return persistence.Room{}, mapRepositoryError(err)
	}

	normalized := normalizeRoomInput(params.Input)
	vErr := validateRoomInput(normalized)
	if vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	existing.Name = normalized.Name
	existing.Capacity = normalized.Capacity
	existing.Location = normalized.Location
	existing.Features = normalized.Features
	existing.UpdatedAt = s.now()

	if err := s.rooms.UpdateRoom(ctx, existing); err != nil {
		return persistence.Room{}, mapRepositoryError(err)
	}
	return existing, nil
}

// GetRoom returns one room for any authenticated account.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (persistence.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepositoryError(err)
	}
	return room, nil
}

// ListRooms returns the room catalog.
func (s *RoomService) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	return s.rooms.ListRooms(ctx)
}

// DeleteRoom removes a room and its bookings for administrators.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		return mapRepositoryError(err)
	}
	s.loggerWith(ctx, "DeleteRoom").InfoContext(ctx, "room deleted", "room_id", roomID)
	return nil
}

// Availability reports the Free/Busy state of each room for a window. When
// roomID is set only that room is reported.
func (s *RoomService) Availability(ctx context.Context, from, to time.Time, roomID *string) ([]RoomAvailability, error) {
	vErr := &ValidationError{}
	if from.IsZero() || to.IsZero() {
		vErr.add("window", "from and to are required")
	} else if !to.After(from) {
		vErr.add("window", "to must be after from")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	var rooms []persistence.Room
	if roomID != nil {
		room, err := s.rooms.GetRoom(ctx, *roomID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		rooms = []persistence.Room{room}
	} else {
		var err error
		rooms, err = s.rooms.ListRooms(ctx)
		if err != nil {
			return nil, err
		}
	}

	busyIDs, err := s.meetings.OverlappingRoomIDs(ctx, from, to, roomID)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]bool, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = true
	}

	result := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		availability := booking.AvailabilityFree
		if busy[room.ID] {
			availability = booking.AvailabilityBusy
		}
		result = append(result, RoomAvailability{Room: room, Availability: availability})
	}
	return result, nil
}

func normalizeRoomInput(input RoomInput) RoomInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)
	if input.Features != nil {
		trimmed := strings.TrimSpace(*input.Features)
		if trimmed == "" {
			input.Features = nil
		} else {
			input.Features = &trimmed
		}
	}
	return input
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	return vErr
}
