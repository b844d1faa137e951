package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

// Repository persists payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByOrderID(ctx context.Context, razorpayOrderID string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page pagination.Params) ([]models.Payment, int64, error)
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

func (r *repositoryImpl) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) FindByOrderID(ctx context.Context, razorpayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		First(&payment, "razorpay_order_id = ?", razorpayOrderID).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, page pagination.Params) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	err := query.
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
