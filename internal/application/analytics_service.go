package application

import (
	"context"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// AnalyticsService assembles the admin dashboard from aggregate queries.
type AnalyticsService struct {
	analytics persistence.AnalyticsRepository
	now       func() time.Time
}

// NewAnalyticsService wires dependencies for the analytics service.
func NewAnalyticsService(analytics persistence.AnalyticsRepository, now func() time.Time) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{analytics: analytics, now: now}
}

// Summary returns dashboard counters for administrators. When the window is
// unset the room usage report covers the trailing 30 days.
func (s *AnalyticsService) Summary(ctx context.Context, principal Principal, from, to *time.Time) (AnalyticsSummary, error) {
	if !principal.IsAdmin {
		return AnalyticsSummary{}, ErrUnauthorized
	}

	windowEnd := s.now()
	if to != nil {
		windowEnd = *to
	}
	windowStart := windowEnd.Add(-30 * 24 * time.Hour)
	if from != nil {
		windowStart = *from
	}
	if !windowEnd.After(windowStart) {
		vErr := &ValidationError{}
		vErr.add("window", "to must be after from")
		return AnalyticsSummary{}, vErr
	}

	users, rooms, meetings, err := s.analytics.CountRows(ctx)
	if err != nil {
		return AnalyticsSummary{}, err
	}
	byStatus, err := s.analytics.CountMeetingsByStatus(ctx)
	if err != nil {
		return AnalyticsSummary{}, err
	}
	usage, err := s.analytics.RoomUsage(ctx, windowStart, windowEnd)
	if err != nil {
		return AnalyticsSummary{}, err
	}

	return AnalyticsSummary{
		TotalUsers:       users,
		TotalRooms:       rooms,
		TotalMeetings:    meetings,
		MeetingsByStatus: byStatus,
		RoomUsage:        usage,
	}, nil
}

// RoomUsage returns the per-room booking report for administrators.
func (s *AnalyticsService) RoomUsage(ctx context.Context, principal Principal, from, to time.Time) ([]persistence.RoomUsage, error) {
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if from.IsZero() || to.IsZero() || !to.After(from) {
		vErr := &ValidationError{}
		vErr.add("window", "from and to are required and to must be after from")
		return nil, vErr
	}
	return s.analytics.RoomUsage(ctx, from, to)
}
