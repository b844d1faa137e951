package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

// Repository persists catalog services.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, svc *models.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Update(ctx context.Context, svc *models.Service) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (int64, error)
	List(ctx context.Context, params listServicesParams) ([]models.Service, int64, error)
}

type listServicesParams struct {
	Page       pagination.Params
	Category   string
	ActiveOnly bool
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, svc *models.Service) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repositoryImpl) Update(ctx context.Context, svc *models.Service) error {
	return r.db.WithContext(ctx).Save(svc).Error
}

func (r *repositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) List(ctx context.Context, params listServicesParams) ([]models.Service, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Service{})
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var services []models.Service
	err := query.
		Order("name ASC").
		Limit(params.Page.Limit).
		Offset(params.Page.Offset()).
		Find(&services).Error
	if err != nil {
		return nil, 0, err
	}
	return services, total, nil
}
