package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups providers working together on assignments.
type Team struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;column:owner_id" json:"owner_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TeamMember joins a provider to a team.
type TeamMember struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TeamID   uuid.UUID `gorm:"type:uuid;not null;column:team_id;uniqueIndex:idx_team_member" json:"team_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_team_member" json:"user_id"`
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}
