// Package sqlite implements the persistence repositories on top of a SQLite
// database accessed through database/sql and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/persistence"
	_ "modernc.org/sqlite"
)

// Store owns the database handle shared by every repository.
//
// The connection pool is capped at a single connection: SQLite allows one
// writer at a time, and funnelling all statements through one connection
// serializes each check-then-write transaction, which is what the
// double-booking rule requires.
type Store struct {
	db *sql.DB
}

// Open opens the database at the given DSN and configures the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the schema. Statements are idempotent so the store can be
// migrated on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'Employee' CHECK (role IN ('Admin', 'Employee')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		location TEXT NOT NULL DEFAULT '',
		features TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		organizer_id TEXT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		agenda TEXT,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Scheduled'
			CHECK (status IN ('Scheduled', 'Started', 'Ended', 'Cancelled')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_room_window
		ON meetings (room_id, start_time, end_time)`,
	`CREATE TABLE IF NOT EXISTS meeting_attendees (
		id TEXT PRIMARY KEY,
		meeting_id TEXT NOT NULL REFERENCES meetings(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'Invited'
			CHECK (status IN ('Invited', 'Accepted', 'Declined')),
		created_at TEXT NOT NULL,
		UNIQUE (meeting_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS minutes (
		id TEXT PRIMARY KEY,
		meeting_id TEXT NOT NULL UNIQUE REFERENCES meetings(id),
		creator_id TEXT NOT NULL REFERENCES users(id),
		notes TEXT NOT NULL DEFAULT '',
		discussion TEXT NOT NULL DEFAULT '',
		decisions TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id TEXT PRIMARY KEY,
		minute_id TEXT NOT NULL REFERENCES minutes(id),
		description TEXT NOT NULL,
		assignee_id TEXT REFERENCES users(id),
		assignee_label TEXT,
		due_date TEXT,
		status TEXT NOT NULL DEFAULT 'Pending'
			CHECK (status IN ('Pending', 'InProgress', 'Done')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		meeting_id TEXT REFERENCES meetings(id),
		minute_id TEXT REFERENCES minutes(id),
		file_name TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		content BLOB NOT NULL,
		size_bytes INTEGER NOT NULL,
		uploaded_by TEXT NOT NULL REFERENCES users(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		link TEXT,
		meeting_id TEXT,
		action_item_id TEXT,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		created_by_ip TEXT NOT NULL DEFAULT '',
		revoked_at TEXT,
		revoked_by_ip TEXT NOT NULL DEFAULT '',
		replaced_by_token TEXT
	)`,
}

// TransactionFunc represents a function executed within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn inside a transaction, rolling back on error or
// panic and committing otherwise.
func (s *Store) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// --- column helpers ---

// fmtTime renders a UTC RFC3339 string at second precision. A single fixed
// width keeps lexicographic string comparison equivalent to time ordering,
// which the overlap queries rely on.
func fmtTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseTimePtr(value string) (*time.Time, error) {
	ts, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*value), Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	clone := value.String
	return &clone
}

// mapError maps SQLite errors to persistence sentinels. The modernc driver
// reports constraint failures as formatted strings rather than typed errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return persistence.ErrForeignKeyViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return persistence.ErrConstraintViolation
	}
	return err
}
