package enums

import "fmt"

// NotificationPriority maps to the notification_priority enum in Postgres.
// Priorities are fixed per event type by the automation handlers.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityLow,
	NotificationPriorityMedium,
	NotificationPriorityHigh,
	NotificationPriorityUrgent,
}

// String implements fmt.Stringer.
func (n NotificationPriority) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationPriority.
func (n NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw input into a NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}
