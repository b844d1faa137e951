package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/bookings"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
	"github.com/gharseva/gharseva-backend/pkg/razorpay"
)

const defaultCurrency = "INR"

// Gateway is the slice of the Razorpay client the payments service
// needs. Kept small so tests can stub the wire calls.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) (bool, error)
}

// Service owns the payment flow: order creation against Razorpay,
// checkout signature verification and refund bookkeeping.
type Service interface {
	CreateOrder(ctx context.Context, customerID, bookingID uuid.UUID) (*models.Payment, error)
	Verify(ctx context.Context, customerID uuid.UUID, params VerifyParams) (*models.Payment, error)
	MarkFailed(ctx context.Context, razorpayOrderID, reason string) (*models.Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page pagination.Params) (*ListResult, error)
}

type service struct {
	repo     Repository
	bookings bookings.Repository
	gateway  Gateway
}

// VerifyParams carries the checkout callback fields Razorpay signs.
type VerifyParams struct {
	RazorpayOrderID   string
	RazorpayPaymentID string
	Signature         string
	Method            *string
}

// ListResult wraps a page of payments with the pagination block.
type ListResult struct {
	Payments   []models.Payment `json:"payments"`
	Pagination pagination.Page  `json:"pagination"`
}

func NewService(repo Repository, bookingRepo bookings.Repository, gateway Gateway) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
	}
	if bookingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bookings repository required")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway required")
	}
	return &service{repo: repo, bookings: bookingRepo, gateway: gateway}, nil
}

func (s *service) CreateOrder(ctx context.Context, customerID, bookingID uuid.UUID) (*models.Payment, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another customer")
	}
	switch booking.Status {
	case enums.BookingStatusCancelled, enums.BookingStatusCompleted:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking is not payable")
	}

	order, err := s.gateway.CreateOrder(ctx, booking.Amount, defaultCurrency, booking.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create razorpay order")
	}

	payment := &models.Payment{
		ID:              uuid.New(),
		BookingID:       booking.ID,
		CustomerID:      customerID,
		RazorpayOrderID: order.ID,
		Amount:          booking.Amount,
		Currency:        defaultCurrency,
		Status:          enums.PaymentStatusCreated,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}
	return payment, nil
}

// Verify checks the checkout signature. A mismatch marks the payment
// failed so the failure is visible downstream, then reports validation.
func (s *service) Verify(ctx context.Context, customerID uuid.UUID, params VerifyParams) (*models.Payment, error) {
	orderID := strings.TrimSpace(params.RazorpayOrderID)
	paymentID := strings.TrimSpace(params.RazorpayPaymentID)
	if orderID == "" || paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "razorpay order and payment ids required")
	}

	payment, err := s.loadByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another customer")
	}
	if payment.Status == enums.PaymentStatusSuccess {
		return payment, nil
	}
	if payment.Status != enums.PaymentStatusCreated && payment.Status != enums.PaymentStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment is not verifiable")
	}

	ok, err := s.gateway.VerifyPaymentSignature(orderID, paymentID, params.Signature)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify payment signature")
	}
	if !ok {
		reason := "signature mismatch"
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &reason
		if err := s.repo.Update(ctx, payment); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed payment")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature mismatch")
	}

	payment.Status = enums.PaymentStatusSuccess
	payment.RazorpayPayment = &paymentID
	payment.Method = params.Method
	payment.FailureReason = nil
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record successful payment")
	}
	return payment, nil
}

func (s *service) MarkFailed(ctx context.Context, razorpayOrderID, reason string) (*models.Payment, error) {
	payment, err := s.loadByOrderID(ctx, strings.TrimSpace(razorpayOrderID))
	if err != nil {
		return nil, err
	}
	if payment.Status == enums.PaymentStatusSuccess || payment.Status == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settled payment cannot be failed")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}
	payment.Status = enums.PaymentStatusFailed
	payment.FailureReason = &reason
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed payment")
	}
	return payment, nil
}

func (s *service) Refund(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusSuccess {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only successful payments can be refunded")
	}

	now := time.Now().UTC()
	payment.Status = enums.PaymentStatusRefunded
	payment.RefundedAt = &now
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
	}
	return payment, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, page pagination.Params) (*ListResult, error) {
	normalized := pagination.Normalize(page)
	rows, total, err := s.repo.ListByCustomer(ctx, customerID, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return &ListResult{
		Payments:   rows,
		Pagination: pagination.Build(normalized, total),
	}, nil
}

func (s *service) loadByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}
