package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/internal/payments"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

type createPaymentOrderRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string  `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string  `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string  `json:"razorpay_signature" validate:"required"`
	Method            *string `json:"method,omitempty"`
}

type failPaymentRequest struct {
	RazorpayOrderID string `json:"razorpay_order_id" validate:"required"`
	Reason          string `json:"reason" validate:"required"`
}

func CreatePaymentOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createPaymentOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParsePathUUID(req.BookingID, "booking_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.CreateOrder(r.Context(), customerID, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Verify(r.Context(), customerID, payments.VerifyParams{
			RazorpayOrderID:   req.RazorpayOrderID,
			RazorpayPaymentID: req.RazorpayPaymentID,
			Signature:         req.RazorpaySignature,
			Method:            req.Method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// FailPayment records a client-reported checkout failure.
func FailPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := recipientFromContext(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req failPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.MarkFailed(r.Context(), req.RazorpayOrderID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

func RefundPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Refund(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

func ListPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListByCustomer(r.Context(), customerID, pagination.Params{Page: page, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
