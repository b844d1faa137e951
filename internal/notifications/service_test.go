package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

type fakeRepository struct {
	created     []*models.Notification
	batches     [][]models.Notification
	createErr   error
	listFn      func(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error)
	markReadFn  func(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error)
	markAllFn   func(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID, now time.Time) (int64, error)
	dismissFn   func(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error)
	unreadFn    func(ctx context.Context, recipientID uuid.UUID) (int64, error)
	deleteOldFn func(ctx context.Context, cutoff time.Time, status *enums.NotificationStatus) (int64, error)
	statsFn     func(ctx context.Context, recipientID *uuid.UUID, recentLimit int) (*StatsResult, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.batches = append(f.batches, notifications)
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, recipientID, notificationID, actorID, now)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID, now time.Time) (int64, error) {
	if f.markAllFn != nil {
		return f.markAllFn(ctx, recipientID, actorID, now)
	}
	return 0, nil
}

func (f *fakeRepository) Dismiss(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.dismissFn != nil {
		return f.dismissFn(ctx, recipientID, notificationID, actorID, now)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if f.unreadFn != nil {
		return f.unreadFn(ctx, recipientID)
	}
	return 0, nil
}

func (f *fakeRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, status *enums.NotificationStatus) (int64, error) {
	if f.deleteOldFn != nil {
		return f.deleteOldFn(ctx, cutoff, status)
	}
	return 0, nil
}

func (f *fakeRepository) Stats(ctx context.Context, recipientID *uuid.UUID, recentLimit int) (*StatsResult, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, recipientID, recentLimit)
	}
	return &StatsResult{}, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo, 0)
	return svc
}

func TestService_CreateValidation(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	ctx := context.Background()

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"missing type", CreateParams{Title: "t", Message: "m", RecipientID: uuid.New()}},
		{"missing title", CreateParams{Type: "welcome", Message: "m", RecipientID: uuid.New()}},
		{"missing message", CreateParams{Type: "welcome", Title: "t", RecipientID: uuid.New()}},
		{"missing recipient", CreateParams{Type: "welcome", Title: "t", Message: "m"}},
		{"blank title", CreateParams{Type: "welcome", Title: "   ", Message: "m", RecipientID: uuid.New()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.params)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestService_CreateAppliesDefaults(t *testing.T) {
	repo := &fakeRepository{}
	svc := newServiceWithRepo(repo)

	recipient := uuid.New()
	row, err := svc.Create(context.Background(), CreateParams{
		Type:        "welcome",
		Title:       "Welcome",
		Message:     "hello",
		RecipientID: recipient,
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if row.Status != enums.NotificationStatusUnread {
		t.Fatalf("expected unread status, got %s", row.Status)
	}
	if row.Priority != enums.NotificationPriorityMedium {
		t.Fatalf("expected medium priority, got %s", row.Priority)
	}
	if row.SenderID != nil {
		t.Fatalf("expected nil sender, got %v", row.SenderID)
	}
	if row.Metadata == nil || len(row.Metadata) != 0 {
		t.Fatalf("expected empty metadata map, got %v", row.Metadata)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted row, got %d", len(repo.created))
	}
}

func TestService_CreateBookingNotificationTemplates(t *testing.T) {
	data := BookingData{
		ServiceName:    "Deep Cleaning",
		ScheduledDate:  "2026-09-01",
		ScheduledTime:  "10:00",
		ServiceAddress: "12 MG Road",
	}

	cases := []struct {
		eventType string
		priority  enums.NotificationPriority
	}{
		{"assigned", enums.NotificationPriorityMedium},
		{"confirmed", enums.NotificationPriorityMedium},
		{"started", enums.NotificationPriorityMedium},
		{"completed", enums.NotificationPriorityMedium},
		{"cancelled", enums.NotificationPriorityHigh},
	}
	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			repo := &fakeRepository{}
			svc := newServiceWithRepo(repo)

			row, err := svc.CreateBookingNotification(context.Background(), uuid.New(), uuid.New(), tc.eventType, data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if row.Priority != tc.priority {
				t.Fatalf("expected priority %s, got %s", tc.priority, row.Priority)
			}
			if !strings.Contains(row.Message, data.ScheduledDate) {
				t.Fatalf("expected message to contain scheduled date, got %q", row.Message)
			}
			if row.Type != "booking_"+tc.eventType {
				t.Fatalf("unexpected type %s", row.Type)
			}
			if row.RelatedEntityType == nil || *row.RelatedEntityType != "booking" {
				t.Fatalf("expected booking entity reference")
			}
		})
	}
}

func TestService_CreateBookingNotificationUnknownEvent(t *testing.T) {
	repo := &fakeRepository{}
	svc := newServiceWithRepo(repo)

	_, err := svc.CreateBookingNotification(context.Background(), uuid.New(), uuid.New(), "teleported", BookingData{})
	if err == nil {
		t.Fatal("expected unknown event error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnknownEvent {
		t.Fatalf("expected unknown event code, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no rows written, got %d", len(repo.created))
	}
}

func TestService_CreatePaymentNotificationTemplates(t *testing.T) {
	data := PaymentData{Amount: "1499.00", BookingID: "bk-42", PaymentMethod: "UPI"}

	cases := []struct {
		eventType string
		priority  enums.NotificationPriority
	}{
		{"success", enums.NotificationPriorityMedium},
		{"failed", enums.NotificationPriorityHigh},
		{"refunded", enums.NotificationPriorityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			svc := newServiceWithRepo(&fakeRepository{})
			row, err := svc.CreatePaymentNotification(context.Background(), uuid.New(), uuid.New(), tc.eventType, data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if row.Priority != tc.priority {
				t.Fatalf("expected priority %s, got %s", tc.priority, row.Priority)
			}
			if !strings.Contains(row.Message, data.Amount) {
				t.Fatalf("expected message to echo amount, got %q", row.Message)
			}
		})
	}

	svc := newServiceWithRepo(&fakeRepository{})
	if _, err := svc.CreatePaymentNotification(context.Background(), uuid.New(), uuid.New(), "pending", data); err == nil {
		t.Fatal("expected unknown event error")
	}
}

func TestService_CreateManyValidatesBeforeWrite(t *testing.T) {
	repo := &fakeRepository{}
	svc := newServiceWithRepo(repo)

	batch := []CreateParams{
		{Type: "system_update", Title: "t", Message: "m", RecipientID: uuid.New()},
		{Type: "system_update", Title: "", Message: "m", RecipientID: uuid.New()},
	}
	if _, err := svc.CreateMany(context.Background(), batch); err == nil {
		t.Fatal("expected validation error")
	}
	if len(repo.batches) != 0 {
		t.Fatalf("expected no batch written, got %d", len(repo.batches))
	}
}

func TestService_ListNormalizesPagination(t *testing.T) {
	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error) {
			if params.Page.Limit != pagination.DefaultLimit || params.Page.Page != 1 {
				t.Fatalf("expected normalized page, got %+v", params.Page)
			}
			return []models.Notification{{ID: uuid.New()}}, 41, nil
		},
	}
	svc := newServiceWithRepo(repo)

	result, err := svc.List(context.Background(), ListParams{RecipientID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if result.Pagination.Total != 41 {
		t.Fatalf("expected total 41, got %d", result.Pagination.Total)
	}
	if result.Pagination.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", result.Pagination.Pages)
	}
}

func TestService_ListRejectsBadStatusFilter(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	_, err := svc.List(context.Background(), ListParams{RecipientID: uuid.New(), Status: "archived"})
	if err == nil {
		t.Fatal("expected error for bad status filter")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestService_MarkReadIdempotent(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: true, Updated: false}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New(), nil); err != nil {
		t.Fatalf("expected already-read mark to succeed, got %v", err)
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{Found: false}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New(), nil)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestService_MarkAllRead(t *testing.T) {
	repo := &fakeRepository{
		markAllFn: func(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID, now time.Time) (int64, error) {
			return 4, nil
		},
	}
	svc := newServiceWithRepo(repo)
	count, err := svc.MarkAllRead(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 updated rows, got %d", count)
	}
}

func TestService_DismissForwardsActor(t *testing.T) {
	admin := uuid.New()
	var gotActor *uuid.UUID
	repo := &fakeRepository{
		dismissFn: func(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
			gotActor = actorID
			return notificationMarkResult{Found: true, Updated: true}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.Dismiss(context.Background(), uuid.New(), uuid.New(), &admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotActor == nil || *gotActor != admin {
		t.Fatalf("expected actor %s forwarded, got %v", admin, gotActor)
	}
}

func TestService_DismissRepoError(t *testing.T) {
	repo := &fakeRepository{
		dismissFn: func(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{}, errors.New("boom")
		},
	}
	svc := newServiceWithRepo(repo)
	err := svc.Dismiss(context.Background(), uuid.New(), uuid.New(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", err)
	}
}

func TestService_StatsPassesRecentLimit(t *testing.T) {
	repo := &fakeRepository{
		statsFn: func(ctx context.Context, recipientID *uuid.UUID, recentLimit int) (*StatsResult, error) {
			if recentLimit != defaultRecentLimit {
				t.Fatalf("expected default recent limit, got %d", recentLimit)
			}
			return &StatsResult{Total: 9, Unread: 2}, nil
		},
	}
	svc := newServiceWithRepo(repo)

	stats, err := svc.Stats(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 9 || stats.Unread != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
