package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/meetingroom/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	store *Store
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

const roomColumns = "id, name, capacity, location, features, created_at, updated_at"

// CreateRoom inserts a new room row.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO rooms (id, name, capacity, location, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		nullString(room.Features),
		fmtTime(room.CreatedAt),
		fmtTime(room.UpdatedAt),
	)
	return mapError(err)
}

// UpdateRoom updates an existing room row.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	query := `
		UPDATE rooms
		SET name = ?, capacity = ?, location = ?, features = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.store.db.ExecContext(ctx, query,
		room.Name,
		room.Capacity,
		room.Location,
		nullString(room.Features),
		fmtTime(room.UpdatedAt),
		room.ID,
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

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.store.db.QueryRowContext(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = ?", id)
	return scanRoom(row)
}

// ListRooms returns every room ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+roomColumns+" FROM rooms ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes the room and every dependent meeting record in one
// transaction so no orphaned rows survive the cascade.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.store.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM action_items WHERE minute_id IN
				(SELECT id FROM minutes WHERE meeting_id IN (SELECT id FROM meetings WHERE room_id = ?))`,
			`DELETE FROM attachments WHERE minute_id IN
				(SELECT id FROM minutes WHERE meeting_id IN (SELECT id FROM meetings WHERE room_id = ?))`,
			`DELETE FROM attachments WHERE meeting_id IN (SELECT id FROM meetings WHERE room_id = ?)`,
			`DELETE FROM minutes WHERE meeting_id IN (SELECT id FROM meetings WHERE room_id = ?)`,
			`DELETE FROM meeting_attendees WHERE meeting_id IN (SELECT id FROM meetings WHERE room_id = ?)`,
			`DELETE FROM meetings WHERE room_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt, id); err != nil {
				return mapError(err)
			}
		}

		result, err := tx.Exec("DELETE FROM rooms WHERE id = ?", id)
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

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var features sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Location,
		&features,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}

	room.Features = stringPtr(features)
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return room, nil
}
