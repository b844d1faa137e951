package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// Repository exposes persistence helpers for users.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ListActiveAdmins(ctx context.Context) ([]models.User, error)
	ListActiveUsers(ctx context.Context) ([]models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, reason *string) error
	SetVerificationStatus(ctx context.Context, id uuid.UUID, status enums.VerificationStatus) error
	SetAadhaarLast4(ctx context.Context, id uuid.UUID, last4 string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		First(&user, "LOWER(email) = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// ListActiveAdmins resolves the admin fan-out recipient set.
func (r *repositoryImpl) ListActiveAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", enums.UserRoleAdmin, true).
		Find(&admins).Error
	return admins, err
}

// ListActiveUsers resolves the recipient set for platform-wide broadcasts.
func (r *repositoryImpl) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&users).Error
	return users, err
}

func (r *repositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool, reason *string) error {
	updates := map[string]any{
		"is_active":         active,
		"suspension_reason": reason,
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *repositoryImpl) SetVerificationStatus(ctx context.Context, id uuid.UUID, status enums.VerificationStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("verification_status", status).Error
}

func (r *repositoryImpl) SetAadhaarLast4(ctx context.Context, id uuid.UUID, last4 string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("aadhaar_last4", last4).Error
}
