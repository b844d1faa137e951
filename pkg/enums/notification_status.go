package enums

import "fmt"

// NotificationStatus maps to the notification_status enum in Postgres.
type NotificationStatus string

const (
	NotificationStatusUnread    NotificationStatus = "unread"
	NotificationStatusRead      NotificationStatus = "read"
	NotificationStatusDismissed NotificationStatus = "dismissed"
)

var validNotificationStatuses = []NotificationStatus{
	NotificationStatusUnread,
	NotificationStatusRead,
	NotificationStatusDismissed,
}

// String implements fmt.Stringer.
func (n NotificationStatus) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationStatus.
func (n NotificationStatus) IsValid() bool {
	for _, candidate := range validNotificationStatuses {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationStatus converts raw input into a NotificationStatus.
func ParseNotificationStatus(value string) (NotificationStatus, error) {
	for _, candidate := range validNotificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification status %q", value)
}
