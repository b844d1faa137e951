package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

// Repository persists bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	List(ctx context.Context, params listBookingsParams) ([]models.Booking, int64, error)
}

type listBookingsParams struct {
	Page       pagination.Params
	CustomerID *uuid.UUID
	ProviderID *uuid.UUID
	Status     *enums.BookingStatus
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

func (r *repositoryImpl) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repositoryImpl) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listBookingsParams) ([]models.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.ProviderID != nil {
		query = query.Where("provider_id = ?", *params.ProviderID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	err := query.
		Order("created_at DESC, id DESC").
		Limit(params.Page.Limit).
		Offset(params.Page.Offset()).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}
