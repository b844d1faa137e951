package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// User represents the canonical identity entity. Providers and admins
// share the table; role plus verification status distinguish them.
type User struct {
	ID                 uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string                    `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash       string                    `gorm:"column:password_hash;not null"`
	FullName           string                    `gorm:"column:full_name;not null"`
	Phone              *string                   `gorm:"column:phone"`
	Role               enums.UserRole            `gorm:"type:user_role;not null;default:'customer'"`
	IsActive           bool                      `gorm:"column:is_active;not null"`
	VerificationStatus *enums.VerificationStatus `gorm:"type:verification_status;column:verification_status"`
	SuspensionReason   *string                   `gorm:"column:suspension_reason"`
	AadhaarLast4       *string                   `gorm:"column:aadhaar_last4"`
	LastLoginAt        *time.Time                `gorm:"column:last_login_at"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
