package enums

import "fmt"

// BookingStatus maps to the booking_status enum in Postgres.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAssigned,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// CanTransitionTo enforces the booking lifecycle. Cancellation is
// allowed any time before work starts.
func (b BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch b {
	case BookingStatusPending:
		return next == BookingStatusAssigned || next == BookingStatusCancelled
	case BookingStatusAssigned:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusInProgress || next == BookingStatusCancelled
	case BookingStatusInProgress:
		return next == BookingStatusCompleted
	default:
		return false
	}
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
