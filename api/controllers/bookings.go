package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/api/middleware"
	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/internal/bookings"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

type createBookingRequest struct {
	ServiceID      string  `json:"service_id" validate:"required,uuid"`
	ScheduledDate  string  `json:"scheduled_date" validate:"required"`
	ScheduledTime  string  `json:"scheduled_time" validate:"required"`
	ServiceAddress string  `json:"service_address" validate:"required,min=5"`
	Notes          *string `json:"notes,omitempty"`
}

type assignBookingRequest struct {
	ProviderID string `json:"provider_id" validate:"required,uuid"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type rescheduleBookingRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
}

func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serviceID, err := validators.ParsePathUUID(req.ServiceID, "service_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), customerID, bookings.CreateParams{
			ServiceID:      serviceID,
			ScheduledDate:  req.ScheduledDate,
			ScheduledTime:  req.ScheduledTime,
			ServiceAddress: req.ServiceAddress,
			Notes:          req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// ListBookings scopes the feed to the caller: customers see their own
// bookings, providers their assignments, admins everything.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := recipientFromContext(r)
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

		params := bookings.ListParams{
			Page:   pagination.Params{Page: page, Limit: limit},
			Status: r.URL.Query().Get("status"),
		}
		switch enums.UserRole(middleware.RoleFromContext(r.Context())) {
		case enums.UserRoleProvider:
			params.ProviderID = &userID
		case enums.UserRoleAdmin:
		default:
			params.CustomerID = &userID
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func BookingDetail(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParsePathUUID(chi.URLParam(r, "bookingId"), "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Get(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		owned := booking.CustomerID == userID ||
			(booking.ProviderID != nil && *booking.ProviderID == userID)
		if role != enums.UserRoleAdmin && !owned {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another user"))
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func AssignBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := validators.ParsePathUUID(chi.URLParam(r, "bookingId"), "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		providerID, err := validators.ParsePathUUID(req.ProviderID, "provider_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Assign(r.Context(), bookingID, providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func bookingTransition(logg *logger.Logger, run func(userID, bookingID uuid.UUID, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParsePathUUID(chi.URLParam(r, "bookingId"), "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := run(userID, bookingID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ConfirmBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(logg, func(userID, bookingID uuid.UUID, r *http.Request) (any, error) {
		return svc.Confirm(r.Context(), userID, bookingID)
	})
}

func StartBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(logg, func(userID, bookingID uuid.UUID, r *http.Request) (any, error) {
		return svc.Start(r.Context(), userID, bookingID)
	})
}

func CompleteBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(logg, func(userID, bookingID uuid.UUID, r *http.Request) (any, error) {
		return svc.Complete(r.Context(), userID, bookingID)
	})
}

func CancelBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(logg, func(userID, bookingID uuid.UUID, r *http.Request) (any, error) {
		var req cancelBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		return svc.Cancel(r.Context(), userID, role, bookingID, req.Reason)
	})
}

func RescheduleBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return bookingTransition(logg, func(userID, bookingID uuid.UUID, r *http.Request) (any, error) {
		var req rescheduleBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Reschedule(r.Context(), userID, bookingID, req.ScheduledDate, req.ScheduledTime)
	})
}
