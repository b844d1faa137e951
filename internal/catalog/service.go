package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

// Service manages the catalog of bookable home services.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Service, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Service, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
}

// CreateParams describes a new catalog entry.
type CreateParams struct {
	Name        string
	Category    string
	Description *string
	BasePrice   decimal.Decimal
}

// UpdateParams carries optional field updates; nil means unchanged.
type UpdateParams struct {
	Name        *string
	Category    *string
	Description *string
	BasePrice   *decimal.Decimal
}

// ListParams configures catalog listing.
type ListParams struct {
	Page       pagination.Params
	Category   string
	ActiveOnly bool
}

// ListResult wraps a page of services with the pagination block.
type ListResult struct {
	Services   []models.Service `json:"services"`
	Pagination pagination.Page  `json:"pagination"`
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Service, error) {
	name := strings.TrimSpace(params.Name)
	category := strings.TrimSpace(params.Category)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name required")
	}
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service category required")
	}
	if params.BasePrice.IsNegative() || params.BasePrice.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}

	svc := &models.Service{
		ID:          uuid.New(),
		Name:        name,
		Category:    category,
		Description: params.Description,
		BasePrice:   params.BasePrice,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist service")
	}
	return svc, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Service, error) {
	svc, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name cannot be blank")
		}
		svc.Name = name
	}
	if params.Category != nil {
		category := strings.TrimSpace(*params.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service category cannot be blank")
		}
		svc.Category = category
	}
	if params.Description != nil {
		svc.Description = params.Description
	}
	if params.BasePrice != nil {
		if params.BasePrice.IsNegative() || params.BasePrice.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
		}
		svc.BasePrice = *params.BasePrice
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update service")
	}
	return svc, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	updated, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate service")
	}
	if updated == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return s.findService(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return s.findService(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := pagination.Normalize(params.Page)
	services, total, err := s.repo.List(ctx, listServicesParams{
		Page:       page,
		Category:   strings.TrimSpace(params.Category),
		ActiveOnly: params.ActiveOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return &ListResult{
		Services:   services,
		Pagination: pagination.Build(page, total),
	}, nil
}

func (s *service) findService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	return svc, nil
}
