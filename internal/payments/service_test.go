package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/bookings"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/razorpay"
)

type fakeGateway struct {
	orders       int
	verifyResult bool
	verifyErr    error
	createErr    error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*razorpay.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.orders++
	return &razorpay.Order{
		ID:       "order_test_" + receipt[:8],
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) (bool, error) {
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return f.verifyResult, nil
}

func setupPaymentDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
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
);
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  razorpay_order_id TEXT NOT NULL,
  razorpay_payment_id TEXT,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  status TEXT NOT NULL DEFAULT 'created',
  method TEXT,
  failure_reason TEXT,
  refunded_at DATETIME,
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

func newPaymentService(t *testing.T, db *gorm.DB, gateway Gateway) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), bookings.NewRepository(db), gateway)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedBooking(t *testing.T, db *gorm.DB, customerID uuid.UUID, status enums.BookingStatus) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		ID:             uuid.New(),
		CustomerID:     customerID,
		ServiceID:      uuid.New(),
		Status:         status,
		Amount:         decimal.NewFromInt(1499),
		ScheduledDate:  "2026-09-15",
		ScheduledTime:  "10:30",
		ServiceAddress: "14 MG Road, Pune",
	}
	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

func TestCreateOrderPersistsPayment(t *testing.T) {
	db := setupPaymentDB(t)
	gateway := &fakeGateway{}
	svc := newPaymentService(t, db, gateway)
	customer := uuid.New()
	booking := seedBooking(t, db, customer, enums.BookingStatusPending)

	payment, err := svc.CreateOrder(context.Background(), customer, booking.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if payment.Status != enums.PaymentStatusCreated {
		t.Fatalf("expected created, got %s", payment.Status)
	}
	if !strings.HasPrefix(payment.RazorpayOrderID, "order_test_") {
		t.Fatalf("unexpected order id %s", payment.RazorpayOrderID)
	}
	if !payment.Amount.Equal(booking.Amount) {
		t.Fatalf("expected amount %s, got %s", booking.Amount, payment.Amount)
	}
	if gateway.orders != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gateway.orders)
	}
}

func TestCreateOrderRejectsForeignBooking(t *testing.T) {
	db := setupPaymentDB(t)
	svc := newPaymentService(t, db, &fakeGateway{})
	booking := seedBooking(t, db, uuid.New(), enums.BookingStatusPending)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), booking.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateOrderRejectsSettledBooking(t *testing.T) {
	db := setupPaymentDB(t)
	svc := newPaymentService(t, db, &fakeGateway{})
	customer := uuid.New()
	booking := seedBooking(t, db, customer, enums.BookingStatusCancelled)

	_, err := svc.CreateOrder(context.Background(), customer, booking.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyMarksPaymentSuccessful(t *testing.T) {
	db := setupPaymentDB(t)
	gateway := &fakeGateway{verifyResult: true}
	svc := newPaymentService(t, db, gateway)
	customer := uuid.New()
	booking := seedBooking(t, db, customer, enums.BookingStatusConfirmed)
	ctx := context.Background()

	payment, err := svc.CreateOrder(ctx, customer, booking.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	method := "upi"
	verified, err := svc.Verify(ctx, customer, VerifyParams{
		RazorpayOrderID:   payment.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc123",
		Signature:         "sig",
		Method:            &method,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", verified.Status)
	}
	if verified.RazorpayPayment == nil || *verified.RazorpayPayment != "pay_abc123" {
		t.Fatal("razorpay payment id not recorded")
	}

	// Re-verifying a settled payment is a no-op.
	again, err := svc.Verify(ctx, customer, VerifyParams{
		RazorpayOrderID:   payment.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc123",
		Signature:         "sig",
	})
	if err != nil {
		t.Fatalf("re-verify: %v", err)
	}
	if again.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", again.Status)
	}
}

func TestVerifySignatureMismatchMarksFailed(t *testing.T) {
	db := setupPaymentDB(t)
	gateway := &fakeGateway{verifyResult: false}
	svc := newPaymentService(t, db, gateway)
	customer := uuid.New()
	booking := seedBooking(t, db, customer, enums.BookingStatusConfirmed)
	ctx := context.Background()

	payment, err := svc.CreateOrder(ctx, customer, booking.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = svc.Verify(ctx, customer, VerifyParams{
		RazorpayOrderID:   payment.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc123",
		Signature:         "tampered",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	stored, err := svc.Get(ctx, payment.ID)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if stored.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "signature mismatch" {
		t.Fatal("failure reason not recorded")
	}
}

func TestRefundRequiresSuccessfulPayment(t *testing.T) {
	db := setupPaymentDB(t)
	gateway := &fakeGateway{verifyResult: true}
	svc := newPaymentService(t, db, gateway)
	customer := uuid.New()
	booking := seedBooking(t, db, customer, enums.BookingStatusConfirmed)
	ctx := context.Background()

	payment, err := svc.CreateOrder(ctx, customer, booking.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = svc.Refund(ctx, payment.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err = svc.Verify(ctx, customer, VerifyParams{
		RazorpayOrderID:   payment.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc123",
		Signature:         "sig",
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	refunded, err := svc.Refund(ctx, payment.ID)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", refunded.Status)
	}
	if refunded.RefundedAt == nil {
		t.Fatal("refund timestamp not recorded")
	}
}

func TestMarkFailedRecordsReason(t *testing.T) {
	db := setupPaymentDB(t)
	svc := newPaymentService(t, db, &fakeGateway{})
	customer := uuid.New()
	booking := seedBooking(t, db, customer, enums.BookingStatusPending)
	ctx := context.Background()

	payment, err := svc.CreateOrder(ctx, customer, booking.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	failed, err := svc.MarkFailed(ctx, payment.RazorpayOrderID, "card declined")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if failed.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if failed.FailureReason == nil || *failed.FailureReason != "card declined" {
		t.Fatal("failure reason not recorded")
	}
}
