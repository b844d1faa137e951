package bookings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/catalog"
	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

const (
	scheduledDateLayout = "2006-01-02"
	scheduledTimeLayout = "15:04"
)

// Service drives the booking lifecycle. Status transitions are enforced
// through enums.BookingStatus.CanTransitionTo; ownership is checked on
// every mutation so a provider can only touch assigned work.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, params CreateParams) (*models.Booking, error)
	Assign(ctx context.Context, bookingID, providerID uuid.UUID) (*models.Booking, error)
	Confirm(ctx context.Context, providerID, bookingID uuid.UUID) (*models.Booking, error)
	Start(ctx context.Context, providerID, bookingID uuid.UUID) (*models.Booking, error)
	Complete(ctx context.Context, providerID, bookingID uuid.UUID) (*models.Booking, error)
	Cancel(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, bookingID uuid.UUID, reason string) (*models.Booking, error)
	Reschedule(ctx context.Context, customerID, bookingID uuid.UUID, date, timeOfDay string) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	users   users.Repository
}

// CreateParams describes a customer's booking request.
type CreateParams struct {
	ServiceID      uuid.UUID
	ScheduledDate  string
	ScheduledTime  string
	ServiceAddress string
	Notes          *string
}

// ListParams scopes and paginates booking listing.
type ListParams struct {
	Page       pagination.Params
	CustomerID *uuid.UUID
	ProviderID *uuid.UUID
	Status     string
}

// ListResult wraps a page of bookings with the pagination block.
type ListResult struct {
	Bookings   []models.Booking `json:"bookings"`
	Pagination pagination.Page  `json:"pagination"`
}

func NewService(repo Repository, catalogRepo catalog.Repository, userRepo users.Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bookings repository required")
	}
	if catalogRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	if userRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo, catalog: catalogRepo, users: userRepo}, nil
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, params CreateParams) (*models.Booking, error) {
	if err := validateSchedule(params.ScheduledDate, params.ScheduledTime); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(params.ServiceAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service address required")
	}

	offering, err := s.catalog.FindByID(ctx, params.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if !offering.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service is no longer offered")
	}

	booking := &models.Booking{
		ID:             uuid.New(),
		CustomerID:     customerID,
		ServiceID:      offering.ID,
		Status:         enums.BookingStatusPending,
		Amount:         offering.BasePrice,
		ScheduledDate:  params.ScheduledDate,
		ScheduledTime:  params.ScheduledTime,
		ServiceAddress: address,
		Notes:          params.Notes,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist booking")
	}
	return booking, nil
}

func (s *service) Assign(ctx context.Context, bookingID, providerID uuid.UUID) (*models.Booking, error) {
	provider, err := s.users.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if provider.Role != enums.UserRoleProvider || !provider.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee must be an active provider")
	}
	if provider.VerificationStatus == nil || *provider.VerificationStatus != enums.VerificationStatusVerified {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider is not verified")
	}

	return s.transition(ctx, bookingID, enums.BookingStatusAssigned, func(b *models.Booking) error {
		b.ProviderID = &provider.ID
		return nil
	})
}

func (s *service) Confirm(ctx context.Context, providerID, bookingID uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, bookingID, enums.BookingStatusConfirmed, requireProvider(providerID))
}

func (s *service) Start(ctx context.Context, providerID, bookingID uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, bookingID, enums.BookingStatusInProgress, requireProvider(providerID))
}

func (s *service) Complete(ctx context.Context, providerID, bookingID uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, bookingID, enums.BookingStatusCompleted, requireProvider(providerID))
}

func (s *service) Cancel(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, bookingID uuid.UUID, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	return s.transition(ctx, bookingID, enums.BookingStatusCancelled, func(b *models.Booking) error {
		if actorRole != enums.UserRoleAdmin && b.CustomerID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the booking customer can cancel")
		}
		b.CancelReason = &reason
		return nil
	})
}

func (s *service) Reschedule(ctx context.Context, customerID, bookingID uuid.UUID, date, timeOfDay string) (*models.Booking, error) {
	if err := validateSchedule(date, timeOfDay); err != nil {
		return nil, err
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the booking customer can reschedule")
	}
	switch booking.Status {
	case enums.BookingStatusPending, enums.BookingStatusAssigned, enums.BookingStatusConfirmed:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking can no longer be rescheduled")
	}

	booking.ScheduledDate = date
	booking.ScheduledTime = timeOfDay
	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.loadBooking(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := pagination.Normalize(params.Page)
	repoParams := listBookingsParams{
		Page:       page,
		CustomerID: params.CustomerID,
		ProviderID: params.ProviderID,
	}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseBookingStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		repoParams.Status = &status
	}

	bookings, total, err := s.repo.List(ctx, repoParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return &ListResult{
		Bookings:   bookings,
		Pagination: pagination.Build(page, total),
	}, nil
}

// transition loads the booking, runs the mutation hook, checks the
// lifecycle edge and writes the result back.
func (s *service) transition(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus, mutate func(*models.Booking) error) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot move booking from "+booking.Status.String()+" to "+next.String())
	}
	if mutate != nil {
		if err := mutate(booking); err != nil {
			return nil, err
		}
	}
	booking.Status = next
	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	return booking, nil
}

func (s *service) loadBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

func requireProvider(providerID uuid.UUID) func(*models.Booking) error {
	return func(b *models.Booking) error {
		if b.ProviderID == nil || *b.ProviderID != providerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking is not assigned to this provider")
		}
		return nil
	}
}

func validateSchedule(date, timeOfDay string) error {
	if _, err := time.Parse(scheduledDateLayout, date); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scheduled_date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(scheduledTimeLayout, timeOfDay); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scheduled_time must be HH:MM")
	}
	return nil
}
