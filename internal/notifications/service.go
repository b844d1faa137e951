package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	dbtypes "github.com/gharseva/gharseva-backend/pkg/db/types"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

const defaultRecentLimit = 5

// Service is the only code path allowed to write notification rows. It
// enforces the minimal field contract and applies the canned templates
// for booking and payment events.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Notification, error)
	CreateMany(ctx context.Context, batch []CreateParams) (int, error)
	CreateBookingNotification(ctx context.Context, recipientID, bookingID uuid.UUID, eventType string, data BookingData) (*models.Notification, error)
	CreatePaymentNotification(ctx context.Context, recipientID, paymentID uuid.UUID, eventType string, data PaymentData) (*models.Notification, error)
	CreateWelcomeNotification(ctx context.Context, recipientID uuid.UUID, name string) (*models.Notification, error)
	CreateProfileCompletedNotification(ctx context.Context, recipientID uuid.UUID) (*models.Notification, error)
	CreateVerificationNotification(ctx context.Context, recipientID uuid.UUID, status enums.VerificationStatus, reason string) (*models.Notification, error)
	CreatePromotionalNotification(ctx context.Context, recipientID uuid.UUID, title, message string) (*models.Notification, error)
	CreateReminderNotification(ctx context.Context, recipientID, bookingID uuid.UUID, data BookingData) (*models.Notification, error)
	CreateSystemNotification(ctx context.Context, recipientID uuid.UUID, title, message string) (*models.Notification, error)

	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID) (int64, error)
	Dismiss(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID) error
	Stats(ctx context.Context, recipientID *uuid.UUID) (*StatsResult, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, status *enums.NotificationStatus) (int64, error)
}

type service struct {
	repo        Repository
	recentLimit int
}

// CreateParams is the raw constructor input. Type, Title, Message and
// RecipientID are mandatory; everything else takes a default.
type CreateParams struct {
	Type              string
	Title             string
	Message           string
	RecipientID       uuid.UUID
	SenderID          *uuid.UUID
	Priority          enums.NotificationPriority
	Metadata          map[string]any
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
}

// ListParams configures pagination and filters for notification listing.
type ListParams struct {
	RecipientID uuid.UUID
	Page        pagination.Params
	Type        string
	Status      string
}

// ListResult wraps a page of notifications with the pagination block.
type ListResult struct {
	Notifications []models.Notification `json:"notifications"`
	Pagination    pagination.Page       `json:"pagination"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, recentLimit int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &service{repo: repo, recentLimit: recentLimit}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Notification, error) {
	notification, err := buildNotification(params)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}
	return notification, nil
}

// CreateMany validates every entry before writing anything, then performs
// a single batched insert. Used by the broadcast path.
func (s *service) CreateMany(ctx context.Context, batch []CreateParams) (int, error) {
	rows := make([]models.Notification, 0, len(batch))
	for i, params := range batch {
		notification, err := buildNotification(params)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("notification %d invalid", i))
		}
		rows = append(rows, *notification)
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification batch")
	}
	return len(rows), nil
}

func buildNotification(params CreateParams) (*models.Notification, error) {
	if strings.TrimSpace(params.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification type required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}
	if strings.TrimSpace(params.Message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification message required")
	}
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification recipient required")
	}

	priority := params.Priority
	if priority == "" {
		priority = enums.NotificationPriorityMedium
	}
	metadata := dbtypes.JSONMap{}
	for key, value := range params.Metadata {
		metadata[key] = value
	}

	notification := &models.Notification{
		ID:          uuid.New(),
		Type:        params.Type,
		Title:       params.Title,
		Message:     params.Message,
		RecipientID: params.RecipientID,
		SenderID:    params.SenderID,
		Status:      enums.NotificationStatusUnread,
		Priority:    priority,
		Metadata:    metadata,
	}
	if params.RelatedEntityType != "" {
		entityType := params.RelatedEntityType
		notification.RelatedEntityType = &entityType
	}
	if params.RelatedEntityID != nil {
		entityID := params.RelatedEntityID.String()
		notification.RelatedEntityID = &entityID
	}
	return notification, nil
}

func (s *service) CreateBookingNotification(ctx context.Context, recipientID, bookingID uuid.UUID, eventType string, data BookingData) (*models.Notification, error) {
	rendered, err := bookingTemplate(eventType, data)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, CreateParams{
		Type:        "booking_" + eventType,
		Title:       rendered.Title,
		Message:     rendered.Message,
		RecipientID: recipientID,
		Priority:    rendered.Priority,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"scheduled_date": data.ScheduledDate,
			"scheduled_time": data.ScheduledTime,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	})
}

func (s *service) CreatePaymentNotification(ctx context.Context, recipientID, paymentID uuid.UUID, eventType string, data PaymentData) (*models.Notification, error) {
	rendered, err := paymentTemplate(eventType, data)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, CreateParams{
		Type:        "payment_" + eventType,
		Title:       rendered.Title,
		Message:     rendered.Message,
		RecipientID: recipientID,
		Priority:    rendered.Priority,
		Metadata: map[string]any{
			"payment_id":     paymentID.String(),
			"amount":         data.Amount,
			"booking_id":     data.BookingID,
			"payment_method": data.PaymentMethod,
		},
		RelatedEntityType: "payment",
		RelatedEntityID:   &paymentID,
	})
}

func (s *service) CreateWelcomeNotification(ctx context.Context, recipientID uuid.UUID, name string) (*models.Notification, error) {
	greeting := "Welcome to GharSeva! Explore trusted home services near you."
	if name != "" {
		greeting = fmt.Sprintf("Welcome to GharSeva, %s! Explore trusted home services near you.", name)
	}
	return s.Create(ctx, CreateParams{
		Type:        "welcome",
		Title:       "Welcome to GharSeva",
		Message:     greeting,
		RecipientID: recipientID,
		Priority:    enums.NotificationPriorityLow,
	})
}

func (s *service) CreateProfileCompletedNotification(ctx context.Context, recipientID uuid.UUID) (*models.Notification, error) {
	return s.Create(ctx, CreateParams{
		Type:        "profile_completed",
		Title:       "Profile Completed",
		Message:     "Your profile is complete. You can now receive bookings and updates.",
		RecipientID: recipientID,
		Priority:    enums.NotificationPriorityLow,
	})
}

func (s *service) CreateVerificationNotification(ctx context.Context, recipientID uuid.UUID, status enums.VerificationStatus, reason string) (*models.Notification, error) {
	var rendered renderedTemplate
	switch status {
	case enums.VerificationStatusVerified:
		rendered = renderedTemplate{
			Title:    "Account Verified",
			Message:  "Your provider account has been verified. You can now accept bookings.",
			Priority: enums.NotificationPriorityHigh,
		}
	case enums.VerificationStatusRejected:
		msg := "Your provider verification was rejected."
		if reason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, reason)
		}
		rendered = renderedTemplate{Title: "Verification Rejected", Message: msg, Priority: enums.NotificationPriorityHigh}
	case enums.VerificationStatusSuspended:
		msg := "Your provider account has been suspended."
		if reason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, reason)
		}
		rendered = renderedTemplate{Title: "Account Suspended", Message: msg, Priority: enums.NotificationPriorityUrgent}
	default:
		rendered = renderedTemplate{
			Title:    "Verification Update",
			Message:  fmt.Sprintf("Your verification status changed to %s.", status),
			Priority: enums.NotificationPriorityMedium,
		}
	}
	return s.Create(ctx, CreateParams{
		Type:        "provider_" + status.String(),
		Title:       rendered.Title,
		Message:     rendered.Message,
		RecipientID: recipientID,
		Priority:    rendered.Priority,
	})
}

func (s *service) CreatePromotionalNotification(ctx context.Context, recipientID uuid.UUID, title, message string) (*models.Notification, error) {
	return s.Create(ctx, CreateParams{
		Type:        "promotional_offer",
		Title:       title,
		Message:     message,
		RecipientID: recipientID,
		Priority:    enums.NotificationPriorityLow,
	})
}

func (s *service) CreateReminderNotification(ctx context.Context, recipientID, bookingID uuid.UUID, data BookingData) (*models.Notification, error) {
	serviceName := data.ServiceName
	if serviceName == "" {
		serviceName = "your service"
	}
	return s.Create(ctx, CreateParams{
		Type:        "booking_reminder",
		Title:       "Upcoming Booking",
		Message:     fmt.Sprintf("Reminder: %s is scheduled for %s at %s.", serviceName, data.ScheduledDate, data.ScheduledTime),
		RecipientID: recipientID,
		Priority:    enums.NotificationPriorityMedium,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"scheduled_date": data.ScheduledDate,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	})
}

func (s *service) CreateSystemNotification(ctx context.Context, recipientID uuid.UUID, title, message string) (*models.Notification, error) {
	return s.Create(ctx, CreateParams{
		Type:        "system_update",
		Title:       title,
		Message:     message,
		RecipientID: recipientID,
		Priority:    enums.NotificationPriorityLow,
	})
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Page:        pagination.Normalize(params.Page),
		Type:        params.Type,
	}
	if params.Status != "" {
		status, err := enums.ParseNotificationStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}

	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	return &ListResult{
		Notifications: rows,
		Pagination:    pagination.Build(query.Page, total),
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead is idempotent: re-reading an already-read notification is a
// no-op success. Only a missing row is an error. A non-nil actorID is
// stamped into sender_id, for transitions applied on a user's behalf.
func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, actorID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	count, err := s.repo.MarkAllRead(ctx, recipientID, actorID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) Dismiss(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.Dismiss(ctx, recipientID, notificationID, actorID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dismiss notification")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) Stats(ctx context.Context, recipientID *uuid.UUID) (*StatsResult, error) {
	stats, err := s.repo.Stats(ctx, recipientID, s.recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate notification stats")
	}
	return stats, nil
}

func (s *service) DeleteOlderThan(ctx context.Context, cutoff time.Time, status *enums.NotificationStatus) (int64, error) {
	count, err := s.repo.DeleteOlderThan(ctx, cutoff, status)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete old notifications")
	}
	return count, nil
}
