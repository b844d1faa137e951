package providers

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/mailer"
	"github.com/gharseva/gharseva-backend/pkg/vision"
)

type fakeExtractor struct {
	result *vision.AadhaarExtraction
	err    error
}

func (f *fakeExtractor) ExtractAadhaar(ctx context.Context, image []byte) (*vision.AadhaarExtraction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func setupProviderDB(t *testing.T) *gorm.DB {
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
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newProviderService(t *testing.T, db *gorm.DB, extractor Extractor, sender Sender) Service {
	t.Helper()
	svc, err := NewService(users.NewRepository(db), extractor, sender, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedPendingProvider(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	pending := enums.VerificationStatusPending
	provider := &models.User{
		ID:                 uuid.New(),
		Email:              uuid.NewString() + "@gharseva.in",
		FullName:           "Sunita Sharma",
		Role:               enums.UserRoleProvider,
		IsActive:           true,
		VerificationStatus: &pending,
	}
	if err := db.Create(provider).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return provider
}

func TestSubmitIdentityStoresLast4(t *testing.T) {
	db := setupProviderDB(t)
	extractor := &fakeExtractor{result: &vision.AadhaarExtraction{
		Name:       "Sunita Sharma",
		Last4:      "4821",
		Confidence: 0.94,
	}}
	svc := newProviderService(t, db, extractor, &fakeSender{})
	provider := seedPendingProvider(t, db)

	dto, err := svc.SubmitIdentity(context.Background(), provider.ID, []byte("image-bytes"))
	if err != nil {
		t.Fatalf("submit identity: %v", err)
	}
	if dto.AadhaarLast4 == nil || *dto.AadhaarLast4 != "4821" {
		t.Fatal("aadhaar last4 not stored")
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", provider.ID).Error; err != nil {
		t.Fatalf("load provider: %v", err)
	}
	if stored.AadhaarLast4 == nil || *stored.AadhaarLast4 != "4821" {
		t.Fatal("aadhaar last4 not persisted")
	}
}

func TestSubmitIdentityRejectsLowConfidence(t *testing.T) {
	db := setupProviderDB(t)
	extractor := &fakeExtractor{result: &vision.AadhaarExtraction{Last4: "4821", Confidence: 0.3}}
	svc := newProviderService(t, db, extractor, &fakeSender{})
	provider := seedPendingProvider(t, db)

	_, err := svc.SubmitIdentity(context.Background(), provider.ID, []byte("blurry"))
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitIdentityRejectsCustomers(t *testing.T) {
	db := setupProviderDB(t)
	svc := newProviderService(t, db, &fakeExtractor{}, &fakeSender{})

	customer := &models.User{
		ID:       uuid.New(),
		Email:    "customer@gharseva.in",
		FullName: "Amit Patel",
		Role:     enums.UserRoleCustomer,
		IsActive: true,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	_, err := svc.SubmitIdentity(context.Background(), customer.ID, []byte("image"))
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifySendsEmail(t *testing.T) {
	db := setupProviderDB(t)
	sender := &fakeSender{}
	svc := newProviderService(t, db, &fakeExtractor{}, sender)
	provider := seedPendingProvider(t, db)

	dto, err := svc.Verify(context.Background(), provider.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if dto.VerificationStatus == nil || *dto.VerificationStatus != enums.VerificationStatusVerified {
		t.Fatal("verification status not updated")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if sender.sent[0].To != provider.Email {
		t.Fatalf("email sent to %s", sender.sent[0].To)
	}
}

func TestSuspendRecordsReasonAndDeactivates(t *testing.T) {
	db := setupProviderDB(t)
	sender := &fakeSender{}
	svc := newProviderService(t, db, &fakeExtractor{}, sender)
	provider := seedPendingProvider(t, db)

	dto, err := svc.Suspend(context.Background(), provider.ID, "repeated no-shows")
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if dto.IsActive {
		t.Fatal("provider still active after suspension")
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", provider.ID).Error; err != nil {
		t.Fatalf("load provider: %v", err)
	}
	if stored.IsActive {
		t.Fatal("suspension not persisted")
	}
	if stored.SuspensionReason == nil || *stored.SuspensionReason != "repeated no-shows" {
		t.Fatal("suspension reason not persisted")
	}
	if stored.VerificationStatus == nil || *stored.VerificationStatus != enums.VerificationStatusSuspended {
		t.Fatal("verification status not persisted")
	}
}

func TestSuspendRequiresReason(t *testing.T) {
	db := setupProviderDB(t)
	svc := newProviderService(t, db, &fakeExtractor{}, &fakeSender{})
	provider := seedPendingProvider(t, db)

	_, err := svc.Suspend(context.Background(), provider.ID, "  ")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReactivateRestoresAccount(t *testing.T) {
	db := setupProviderDB(t)
	svc := newProviderService(t, db, &fakeExtractor{}, &fakeSender{})
	provider := seedPendingProvider(t, db)

	if _, err := svc.Suspend(context.Background(), provider.ID, "payment dispute"); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	dto, err := svc.Reactivate(context.Background(), provider.ID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !dto.IsActive {
		t.Fatal("provider not reactivated")
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", provider.ID).Error; err != nil {
		t.Fatalf("load provider: %v", err)
	}
	if !stored.IsActive || stored.SuspensionReason != nil {
		t.Fatal("reactivation not persisted")
	}
}

func TestMailFailureDoesNotBlockVerification(t *testing.T) {
	db := setupProviderDB(t)
	sender := &fakeSender{err: errors.New("relay down")}
	svc := newProviderService(t, db, &fakeExtractor{}, sender)
	provider := seedPendingProvider(t, db)

	dto, err := svc.Verify(context.Background(), provider.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if dto.VerificationStatus == nil || *dto.VerificationStatus != enums.VerificationStatusVerified {
		t.Fatal("verification status not updated")
	}
}
