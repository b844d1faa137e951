package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// Payment records a Razorpay order and its outcome for a booking.
type Payment struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookingID        uuid.UUID           `gorm:"type:uuid;not null;column:booking_id" json:"booking_id"`
	CustomerID       uuid.UUID           `gorm:"type:uuid;not null;column:customer_id" json:"customer_id"`
	RazorpayOrderID  string              `gorm:"type:text;not null;uniqueIndex;column:razorpay_order_id" json:"razorpay_order_id"`
	RazorpayPayment  *string             `gorm:"type:text;column:razorpay_payment_id" json:"razorpay_payment_id"`
	Amount           decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string              `gorm:"type:text;not null;default:'INR'" json:"currency"`
	Status           enums.PaymentStatus `gorm:"type:payment_status;not null;default:'created'" json:"status"`
	Method           *string             `gorm:"type:text" json:"method"`
	FailureReason    *string             `gorm:"type:text;column:failure_reason" json:"failure_reason"`
	RefundedAt       *time.Time          `gorm:"type:timestamptz;column:refunded_at" json:"refunded_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
