package booking

import "time"

// Status represents the lifecycle state of a meeting.
type Status string

const (
	// StatusScheduled is the state every meeting enters after a successful booking.
	StatusScheduled Status = "Scheduled"
	// StatusStarted indicates the meeting is currently in progress.
	StatusStarted Status = "Started"
	// StatusEnded indicates the meeting finished normally.
	StatusEnded Status = "Ended"
	// StatusCancelled indicates the booking was withdrawn before it ran.
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusStarted, StatusEnded, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a meeting in this status still occupies room time.
// Cancelled and Ended meetings release their slot.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusStarted
}

// ActiveStatuses lists the statuses that participate in conflict detection.
func ActiveStatuses() []Status {
	return []Status{StatusScheduled, StatusStarted}
}

// CanTransition reports whether a meeting may move from its current status
// to the requested one. Ended and Cancelled are terminal.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusStarted:
		return from == StatusScheduled
	case StatusEnded:
		return from == StatusScheduled || from == StatusStarted
	case StatusCancelled:
		return from == StatusScheduled
	}
	return false
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// intersect. Adjacent intervals (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

// Availability labels a room's state for a reporting window.
type Availability string

const (
	// AvailabilityFree indicates no active meeting intersects the window.
	AvailabilityFree Availability = "Free"
	// AvailabilityBusy indicates at least one active meeting intersects the window.
	AvailabilityBusy Availability = "Busy"
)
