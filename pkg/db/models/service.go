package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is an offering in the catalog (plumbing, cleaning, ...).
type Service struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:text;not null" json:"name"`
	Category    string          `gorm:"type:text;not null" json:"category"`
	Description *string         `gorm:"type:text" json:"description"`
	BasePrice   decimal.Decimal `gorm:"type:numeric(12,2);not null;column:base_price" json:"base_price"`
	IsActive    bool            `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
