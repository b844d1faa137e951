package bookings

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/catalog"
	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

func setupBookingDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  full_name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  verification_status TEXT,
  suspension_reason TEXT,
  aadhaar_last4 TEXT,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS services (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  description TEXT,
  base_price TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  provider_id TEXT,
  service_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount TEXT NOT NULL,
  scheduled_date TEXT NOT NULL,
  scheduled_time TEXT NOT NULL,
  service_address TEXT NOT NULL,
  notes TEXT,
  cancel_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newBookingService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), users.NewRepository(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedOffering(t *testing.T, db *gorm.DB, active bool) *models.Service {
	t.Helper()
	offering := &models.Service{
		ID:        uuid.New(),
		Name:      "Deep Cleaning",
		Category:  "cleaning",
		BasePrice: decimal.NewFromInt(1499),
		IsActive:  active,
	}
	if err := db.Create(offering).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return offering
}

func seedProvider(t *testing.T, db *gorm.DB, status enums.VerificationStatus, active bool) *models.User {
	t.Helper()
	provider := &models.User{
		ID:                 uuid.New(),
		Email:              uuid.NewString() + "@gharseva.in",
		FullName:           "Ravi Kumar",
		Role:               enums.UserRoleProvider,
		IsActive:           active,
		VerificationStatus: &status,
	}
	if err := db.Create(provider).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return provider
}

func TestCreateBookingCopiesCatalogPrice(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	customer := uuid.New()

	booking, err := svc.Create(context.Background(), customer, CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if booking.Status != enums.BookingStatusPending {
		t.Fatalf("expected pending, got %s", booking.Status)
	}
	if !booking.Amount.Equal(offering.BasePrice) {
		t.Fatalf("expected amount %s, got %s", offering.BasePrice, booking.Amount)
	}
	if booking.CustomerID != customer {
		t.Fatal("customer not recorded")
	}
}

func TestCreateBookingRejectsInactiveService(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, false)

	_, err := svc.Create(context.Background(), uuid.New(), CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateBookingRejectsBadSchedule(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)

	_, err := svc.Create(context.Background(), uuid.New(), CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "15-09-2026",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignRequiresVerifiedProvider(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	pending := seedProvider(t, db, enums.VerificationStatusPending, true)

	booking, err := svc.Create(context.Background(), uuid.New(), CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	_, err = svc.Assign(context.Background(), booking.ID, pending.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookingLifecycleHappyPath(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	provider := seedProvider(t, db, enums.VerificationStatusVerified, true)
	ctx := context.Background()

	booking, err := svc.Create(ctx, uuid.New(), CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if booking, err = svc.Assign(ctx, booking.ID, provider.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if booking.ProviderID == nil || *booking.ProviderID != provider.ID {
		t.Fatal("provider not recorded on assignment")
	}
	if booking, err = svc.Confirm(ctx, provider.ID, booking.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if booking, err = svc.Start(ctx, provider.ID, booking.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if booking, err = svc.Complete(ctx, provider.ID, booking.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if booking.Status != enums.BookingStatusCompleted {
		t.Fatalf("expected completed, got %s", booking.Status)
	}
}

func TestConfirmRejectsForeignProvider(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	provider := seedProvider(t, db, enums.VerificationStatusVerified, true)
	ctx := context.Background()

	booking, err := svc.Create(ctx, uuid.New(), CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err = svc.Assign(ctx, booking.ID, provider.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	_, err = svc.Confirm(ctx, uuid.New(), booking.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCancelBlockedOnceWorkStarted(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	provider := seedProvider(t, db, enums.VerificationStatusVerified, true)
	customer := uuid.New()
	ctx := context.Background()

	booking, err := svc.Create(ctx, customer, CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err = svc.Assign(ctx, booking.ID, provider.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err = svc.Confirm(ctx, provider.ID, booking.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err = svc.Start(ctx, provider.ID, booking.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.Cancel(ctx, customer, enums.UserRoleCustomer, booking.ID, "changed my mind")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelRecordsReasonAndGuardsOwnership(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	customer := uuid.New()
	ctx := context.Background()

	booking, err := svc.Create(ctx, customer, CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	_, err = svc.Cancel(ctx, uuid.New(), enums.UserRoleCustomer, booking.ID, "not mine")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	cancelled, err := svc.Cancel(ctx, customer, enums.UserRoleCustomer, booking.ID, "found another provider")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "found another provider" {
		t.Fatal("cancel reason not recorded")
	}
}

func TestRescheduleOnlyBeforeWorkStarts(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	customer := uuid.New()
	ctx := context.Background()

	booking, err := svc.Create(ctx, customer, CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	updated, err := svc.Reschedule(ctx, customer, booking.ID, "2026-09-20", "14:00")
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.ScheduledDate != "2026-09-20" || updated.ScheduledTime != "14:00" {
		t.Fatalf("schedule not updated: %s %s", updated.ScheduledDate, updated.ScheduledTime)
	}
}

func TestListScopesByCustomerAndStatus(t *testing.T) {
	db := setupBookingDB(t)
	svc := newBookingService(t, db)
	offering := seedOffering(t, db, true)
	customer := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, customer, CreateParams{
			ServiceID:      offering.ID,
			ScheduledDate:  "2026-09-15",
			ScheduledTime:  "10:30",
			ServiceAddress: "14 MG Road, Pune",
		}); err != nil {
			t.Fatalf("create booking: %v", err)
		}
	}
	if _, err := svc.Create(ctx, uuid.New(), CreateParams{
		ServiceID:      offering.ID,
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "2 FC Road, Pune",
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	result, err := svc.List(ctx, ListParams{
		Page:       pagination.Params{Page: 1, Limit: 10},
		CustomerID: &customer,
		Status:     "pending",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Bookings) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(result.Bookings))
	}
	if result.Pagination.Total != 3 {
		t.Fatalf("expected total 3, got %d", result.Pagination.Total)
	}

	_, err = svc.List(ctx, ListParams{Status: "bogus"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
