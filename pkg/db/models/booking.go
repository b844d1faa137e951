package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// Booking is a customer's request for a home service visit.
type Booking struct {
	ID             uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID     uuid.UUID           `gorm:"type:uuid;not null;column:customer_id" json:"customer_id"`
	ProviderID     *uuid.UUID          `gorm:"type:uuid;column:provider_id" json:"provider_id"`
	ServiceID      uuid.UUID           `gorm:"type:uuid;not null;column:service_id" json:"service_id"`
	Status         enums.BookingStatus `gorm:"type:booking_status;not null;default:'pending'" json:"status"`
	Amount         decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"amount"`
	ScheduledDate  string              `gorm:"type:date;not null;column:scheduled_date" json:"scheduled_date"`
	ScheduledTime  string              `gorm:"type:text;not null;column:scheduled_time" json:"scheduled_time"`
	ServiceAddress string              `gorm:"type:text;not null;column:service_address" json:"service_address"`
	Notes          *string             `gorm:"type:text" json:"notes"`
	CancelReason   *string             `gorm:"type:text;column:cancel_reason" json:"cancel_reason"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
