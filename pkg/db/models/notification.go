package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/gharseva/gharseva-backend/pkg/db/types"
	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// Notification is the sole entity the automation pipeline persists.
// Once created a row is immutable except for status and its paired
// timestamp; broadcasts are N rows, one per recipient.
type Notification struct {
	ID                uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type              string                     `gorm:"type:text;not null" json:"type"`
	Title             string                     `gorm:"type:text;not null" json:"title"`
	Message           string                     `gorm:"type:text;not null" json:"message"`
	RecipientID       uuid.UUID                  `gorm:"type:uuid;not null;column:recipient_id" json:"recipient_id"`
	SenderID          *uuid.UUID                 `gorm:"type:uuid;column:sender_id" json:"sender_id"`
	Status            enums.NotificationStatus   `gorm:"type:notification_status;not null;default:'unread'" json:"status"`
	Priority          enums.NotificationPriority `gorm:"type:notification_priority;not null;default:'medium'" json:"priority"`
	Metadata          dbtypes.JSONMap            `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	RelatedEntityType *string                    `gorm:"type:text;column:related_entity_type" json:"related_entity_type"`
	RelatedEntityID   *string                    `gorm:"type:text;column:related_entity_id" json:"related_entity_id"`
	CreatedAt         time.Time                  `gorm:"type:timestamptz;default:now()" json:"created_at"`
	ReadAt            *time.Time                 `gorm:"type:timestamptz;column:read_at" json:"read_at"`
	DismissedAt       *time.Time                 `gorm:"type:timestamptz;column:dismissed_at" json:"dismissed_at"`
}
