package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                 uuid.UUID                 `json:"id"`
	Email              string                    `json:"email"`
	FullName           string                    `json:"full_name"`
	Phone              *string                   `json:"phone,omitempty"`
	Role               enums.UserRole            `json:"role"`
	IsActive           bool                      `json:"is_active"`
	VerificationStatus *enums.VerificationStatus `json:"verification_status,omitempty"`
	AadhaarLast4       *string                   `json:"aadhaar_last4,omitempty"`
	LastLoginAt        *time.Time                `json:"last_login_at,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         enums.UserRole
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                 u.ID,
		Email:              u.Email,
		FullName:           u.FullName,
		Phone:              u.Phone,
		Role:               u.Role,
		IsActive:           u.IsActive,
		VerificationStatus: u.VerificationStatus,
		AadhaarLast4:       u.AadhaarLast4,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FullName:     c.FullName,
		Phone:        c.Phone,
		Role:         role,
		IsActive:     isActive,
	}
}
