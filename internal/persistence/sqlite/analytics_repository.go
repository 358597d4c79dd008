package sqlite

import (
	"context"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// AnalyticsRepository implements persistence.AnalyticsRepository using SQLite.
type AnalyticsRepository struct {
	store *Store
}

// NewAnalyticsRepository creates a new SQLite analytics repository.
func NewAnalyticsRepository(store *Store) *AnalyticsRepository {
	return &AnalyticsRepository{store: store}
}

// CountMeetingsByStatus returns the number of meetings per status.
func (r *AnalyticsRepository) CountMeetingsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM meetings GROUP BY status")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, mapError(err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

// CountRows returns the total users, rooms and meetings.
func (r *AnalyticsRepository) CountRows(ctx context.Context) (users, rooms, meetings int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM rooms),
			(SELECT COUNT(*) FROM meetings)
	`
	if err := r.store.db.QueryRowContext(ctx, query).Scan(&users, &rooms, &meetings); err != nil {
		return 0, 0, 0, mapError(err)
	}
	return users, rooms, meetings, nil
}

// RoomUsage aggregates booking counts and booked hours per room over the
// window [from, to). Cancelled meetings are excluded; rooms with no
// bookings still appear with zero counts.
func (r *AnalyticsRepository) RoomUsage(ctx context.Context, from, to time.Time) ([]persistence.RoomUsage, error) {
	query := `
		SELECT
			r.id,
			r.name,
			COUNT(m.id),
			COALESCE(SUM((julianday(m.end_time) - julianday(m.start_time)) * 24.0), 0)
		FROM rooms r
		LEFT JOIN meetings m
			ON m.room_id = r.id
			AND m.status <> 'Cancelled'
			AND m.start_time < ?
			AND m.end_time > ?
		GROUP BY r.id, r.name
		ORDER BY COUNT(m.id) DESC, r.name ASC
	`
	rows, err := r.store.db.QueryContext(ctx, query, fmtTime(to), fmtTime(from))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var usages []persistence.RoomUsage
	for rows.Next() {
		var usage persistence.RoomUsage
		if err := rows.Scan(&usage.RoomID, &usage.RoomName, &usage.MeetingCount, &usage.BookedHours); err != nil {
			return nil, mapError(err)
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return usages, nil
}
