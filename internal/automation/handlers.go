package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/internal/notifications"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
)

// buildRegistry constructs the static event dispatch table. Called once
// from NewEngine; the map is read-only afterwards.
func (e *Engine) buildRegistry() map[string]Handler {
	return map[string]Handler{
		events.BookingCreated:     e.handleBookingCreated,
		events.BookingAssigned:    e.handleBookingAssigned,
		events.BookingConfirmed:   e.bookingLifecycleHandler("confirmed"),
		events.BookingStarted:     e.bookingLifecycleHandler("started"),
		events.BookingCompleted:   e.bookingLifecycleHandler("completed"),
		events.BookingCancelled:   e.handleBookingCancelled,
		events.BookingRescheduled: e.handleBookingRescheduled,

		events.PaymentSuccess:  e.paymentHandler("success"),
		events.PaymentFailed:   e.paymentHandler("failed"),
		events.PaymentRefunded: e.paymentHandler("refunded"),

		events.ProviderRegistered:  e.handleProviderRegistered,
		events.ProviderVerified:    e.verificationHandler(enums.VerificationStatusVerified),
		events.ProviderRejected:    e.verificationHandler(enums.VerificationStatusRejected),
		events.ProviderSuspended:   e.verificationHandler(enums.VerificationStatusSuspended),
		events.ProviderReactivated: e.handleProviderReactivated,
		events.ProfileCompleted:    e.handleProfileCompleted,
		events.Welcome:             e.handleWelcome,

		events.ServiceCreated:     e.catalogChangeHandler("created"),
		events.ServiceUpdated:     e.catalogChangeHandler("updated"),
		events.ServiceDeactivated: e.catalogChangeHandler("deactivated"),

		events.TeamCreated:       e.handleTeamCreated,
		events.TeamMemberAdded:   e.handleTeamMemberAdded,
		events.TeamMemberRemoved: e.handleTeamMemberRemoved,

		events.MaintenanceScheduled: e.handleMaintenanceScheduled,
		events.SystemUpdate:         e.handleSystemUpdate,
		events.PromotionalOffer:     e.handlePromotionalOffer,
	}
}

func bookingDataFromEvent(event events.Event) notifications.BookingData {
	return notifications.BookingData{
		ServiceName:   event.ServiceName,
		ScheduledDate: event.ScheduledDate,
		ScheduledTime: event.ScheduledTime,
		Reason:        event.Reason,
	}
}

func paymentDataFromEvent(event events.Event) notifications.PaymentData {
	bookingID := ""
	if event.EntityID != uuid.Nil {
		bookingID = event.EntityID.String()
	}
	if raw, ok := event.Metadata["booking_id"].(string); ok && raw != "" {
		bookingID = raw
	}
	method, _ := event.Metadata["payment_method"].(string)
	return notifications.PaymentData{
		Amount:        event.Amount.StringFixed(2),
		BookingID:     bookingID,
		PaymentMethod: method,
	}
}

func (e *Engine) handleBookingCreated(ctx context.Context, event events.Event) error {
	if event.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking_created requires customer id")
	}

	bookingID := event.EntityID
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:        events.BookingCreated,
		Title:       "Booking Received",
		Message:     fmt.Sprintf("Your booking for %s on %s at %s has been received. We will assign a provider shortly.", serviceNameOrDefault(event), event.ScheduledDate, event.ScheduledTime),
		RecipientID: event.CustomerID,
		Priority:    enums.NotificationPriorityMedium,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"scheduled_date": event.ScheduledDate,
			"scheduled_time": event.ScheduledTime,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	})
	if err != nil {
		return err
	}

	return e.notifyAdmins(ctx, notifications.CreateParams{
		Type:     events.BookingCreated,
		Title:    "New Booking",
		Message:  fmt.Sprintf("A new booking for %s worth %s was placed for %s at %s.", serviceNameOrDefault(event), event.Amount.StringFixed(2), event.ScheduledDate, event.ScheduledTime),
		Priority: enums.NotificationPriorityLow,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"amount":         event.Amount.StringFixed(2),
			"scheduled_date": event.ScheduledDate,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	})
}

func (e *Engine) handleBookingAssigned(ctx context.Context, event events.Event) error {
	if event.CustomerID == uuid.Nil || event.ProviderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking_assigned requires customer and provider ids")
	}

	if _, err := e.notifications.CreateBookingNotification(ctx, event.CustomerID, event.EntityID, "assigned", bookingDataFromEvent(event)); err != nil {
		return err
	}

	bookingID := event.EntityID
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:        events.BookingAssigned,
		Title:       "New Job Assigned",
		Message:     fmt.Sprintf("You have been assigned %s scheduled for %s at %s.", serviceNameOrDefault(event), event.ScheduledDate, event.ScheduledTime),
		RecipientID: event.ProviderID,
		Priority:    enums.NotificationPriorityHigh,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"scheduled_date": event.ScheduledDate,
			"scheduled_time": event.ScheduledTime,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	})
	return err
}

// bookingLifecycleHandler covers the symmetric customer+provider notices
// for confirmed, started and completed.
func (e *Engine) bookingLifecycleHandler(phase string) Handler {
	return func(ctx context.Context, event events.Event) error {
		if event.CustomerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "booking event requires customer id")
		}

		if _, err := e.notifications.CreateBookingNotification(ctx, event.CustomerID, event.EntityID, phase, bookingDataFromEvent(event)); err != nil {
			return err
		}
		if event.ProviderID == uuid.Nil {
			return nil
		}

		bookingID := event.EntityID
		_, err := e.notifications.Create(ctx, notifications.CreateParams{
			Type:        "booking_" + phase,
			Title:       "Booking " + titleCase(phase),
			Message:     fmt.Sprintf("Booking for %s on %s is now %s.", serviceNameOrDefault(event), event.ScheduledDate, phase),
			RecipientID: event.ProviderID,
			Priority:    enums.NotificationPriorityMedium,
			Metadata: map[string]any{
				"booking_id":     bookingID.String(),
				"scheduled_date": event.ScheduledDate,
			},
			RelatedEntityType: "booking",
			RelatedEntityID:   &bookingID,
		})
		return err
	}
}

func (e *Engine) handleBookingCancelled(ctx context.Context, event events.Event) error {
	if event.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking_cancelled requires customer id")
	}

	if _, err := e.notifications.CreateBookingNotification(ctx, event.CustomerID, event.EntityID, "cancelled", bookingDataFromEvent(event)); err != nil {
		return err
	}
	if event.ProviderID == uuid.Nil {
		return nil
	}

	message := fmt.Sprintf("Booking for %s on %s has been cancelled.", serviceNameOrDefault(event), event.ScheduledDate)
	if event.Reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, event.Reason)
	}
	bookingID := event.EntityID
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:        events.BookingCancelled,
		Title:       "Booking Cancelled",
		Message:     message,
		RecipientID: event.ProviderID,
		Priority:    enums.NotificationPriorityHigh,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"scheduled_date": event.ScheduledDate,
			"reason":         event.Reason,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	})
	return err
}

func (e *Engine) handleBookingRescheduled(ctx context.Context, event events.Event) error {
	if event.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking_rescheduled requires customer id")
	}

	bookingID := event.EntityID
	message := fmt.Sprintf("Your booking for %s has been rescheduled to %s at %s.", serviceNameOrDefault(event), event.ScheduledDate, event.ScheduledTime)
	params := notifications.CreateParams{
		Type:        events.BookingRescheduled,
		Title:       "Booking Rescheduled",
		Message:     message,
		RecipientID: event.CustomerID,
		Priority:    enums.NotificationPriorityMedium,
		Metadata: map[string]any{
			"booking_id":     bookingID.String(),
			"scheduled_date": event.ScheduledDate,
			"scheduled_time": event.ScheduledTime,
		},
		RelatedEntityType: "booking",
		RelatedEntityID:   &bookingID,
	}
	if _, err := e.notifications.Create(ctx, params); err != nil {
		return err
	}
	if event.ProviderID == uuid.Nil {
		return nil
	}

	params.RecipientID = event.ProviderID
	params.Message = fmt.Sprintf("Booking for %s has been rescheduled to %s at %s.", serviceNameOrDefault(event), event.ScheduledDate, event.ScheduledTime)
	_, err := e.notifications.Create(ctx, params)
	return err
}

func (e *Engine) paymentHandler(outcome string) Handler {
	return func(ctx context.Context, event events.Event) error {
		if event.CustomerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment event requires customer id")
		}

		data := paymentDataFromEvent(event)
		if _, err := e.notifications.CreatePaymentNotification(ctx, event.CustomerID, event.EntityID, outcome, data); err != nil {
			return err
		}
		if outcome == "refunded" {
			return nil
		}

		metadata := map[string]any{
			"payment_id":     event.EntityID.String(),
			"amount":         data.Amount,
			"booking_id":     data.BookingID,
			"payment_method": data.PaymentMethod,
		}
		priority := enums.NotificationPriorityLow
		title := "Payment Received"
		message := fmt.Sprintf("Payment of %s received for booking %s via %s.", data.Amount, data.BookingID, data.PaymentMethod)
		if outcome == "failed" {
			priority = enums.NotificationPriorityMedium
			title = "Payment Failed"
			message = fmt.Sprintf("Payment of %s failed for booking %s via %s.", data.Amount, data.BookingID, data.PaymentMethod)
			metadata["failure_reason"] = event.Reason
		}

		paymentID := event.EntityID
		return e.notifyAdmins(ctx, notifications.CreateParams{
			Type:              "payment_" + outcome,
			Title:             title,
			Message:           message,
			Priority:          priority,
			Metadata:          metadata,
			RelatedEntityType: "payment",
			RelatedEntityID:   &paymentID,
		})
	}
}

func (e *Engine) handleProviderRegistered(ctx context.Context, event events.Event) error {
	if event.ProviderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider_registered requires provider id")
	}

	providerID := event.ProviderID
	if err := e.notifyAdmins(ctx, notifications.CreateParams{
		Type:              events.ProviderRegistered,
		Title:             "New Provider Registration",
		Message:           "A new provider has registered and is awaiting verification.",
		Priority:          enums.NotificationPriorityMedium,
		Metadata:          map[string]any{"provider_id": providerID.String()},
		RelatedEntityType: "provider",
		RelatedEntityID:   &providerID,
	}); err != nil {
		return err
	}

	_, err := e.notifications.CreateWelcomeNotification(ctx, event.ProviderID, nameFromEvent(event))
	return err
}

func (e *Engine) verificationHandler(status enums.VerificationStatus) Handler {
	return func(ctx context.Context, event events.Event) error {
		if event.ProviderID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "verification event requires provider id")
		}
		_, err := e.notifications.CreateVerificationNotification(ctx, event.ProviderID, status, event.Reason)
		return err
	}
}

func (e *Engine) handleProviderReactivated(ctx context.Context, event events.Event) error {
	if event.ProviderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider_reactivated requires provider id")
	}
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:        events.ProviderReactivated,
		Title:       "Account Reactivated",
		Message:     "Your provider account has been reactivated. You can accept bookings again.",
		RecipientID: event.ProviderID,
		Priority:    enums.NotificationPriorityHigh,
	})
	return err
}

func (e *Engine) handleProfileCompleted(ctx context.Context, event events.Event) error {
	if event.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "profile_completed requires actor id")
	}
	_, err := e.notifications.CreateProfileCompletedNotification(ctx, event.ActorID)
	return err
}

func (e *Engine) handleWelcome(ctx context.Context, event events.Event) error {
	if event.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "welcome requires actor id")
	}
	_, err := e.notifications.CreateWelcomeNotification(ctx, event.ActorID, nameFromEvent(event))
	return err
}

// catalogChangeHandler keeps an admin-facing audit trail of service
// catalog changes.
func (e *Engine) catalogChangeHandler(change string) Handler {
	return func(ctx context.Context, event events.Event) error {
		serviceID := event.EntityID
		return e.notifyAdmins(ctx, notifications.CreateParams{
			Type:              "service_" + change,
			Title:             "Service " + titleCase(change),
			Message:           fmt.Sprintf("Service %s was %s.", serviceNameOrDefault(event), change),
			Priority:          enums.NotificationPriorityLow,
			Metadata:          map[string]any{"service_id": serviceID.String()},
			RelatedEntityType: "service",
			RelatedEntityID:   &serviceID,
		})
	}
}

func (e *Engine) handleTeamCreated(ctx context.Context, event events.Event) error {
	if event.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "team_created requires actor id")
	}
	teamID := event.EntityID
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:              events.TeamCreated,
		Title:             "Team Created",
		Message:           fmt.Sprintf("Your team %s has been created.", nameFromEvent(event)),
		RecipientID:       event.ActorID,
		Priority:          enums.NotificationPriorityMedium,
		Metadata:          map[string]any{"team_id": teamID.String()},
		RelatedEntityType: "team",
		RelatedEntityID:   &teamID,
	})
	return err
}

func (e *Engine) handleTeamMemberAdded(ctx context.Context, event events.Event) error {
	if event.ProviderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "team_member_added requires member id")
	}
	teamID := event.EntityID
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:              events.TeamMemberAdded,
		Title:             "Added to Team",
		Message:           fmt.Sprintf("You have been added to team %s.", nameFromEvent(event)),
		RecipientID:       event.ProviderID,
		Priority:          enums.NotificationPriorityMedium,
		Metadata:          map[string]any{"team_id": teamID.String()},
		RelatedEntityType: "team",
		RelatedEntityID:   &teamID,
	})
	return err
}

func (e *Engine) handleTeamMemberRemoved(ctx context.Context, event events.Event) error {
	if event.ProviderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "team_member_removed requires member id")
	}
	teamID := event.EntityID
	_, err := e.notifications.Create(ctx, notifications.CreateParams{
		Type:              events.TeamMemberRemoved,
		Title:             "Removed from Team",
		Message:           fmt.Sprintf("You have been removed from team %s.", nameFromEvent(event)),
		RecipientID:       event.ProviderID,
		Priority:          enums.NotificationPriorityMedium,
		Metadata:          map[string]any{"team_id": teamID.String()},
		RelatedEntityType: "team",
		RelatedEntityID:   &teamID,
	})
	return err
}

func (e *Engine) handleMaintenanceScheduled(ctx context.Context, event events.Event) error {
	message := event.Reason
	if message == "" {
		message = fmt.Sprintf("Scheduled maintenance on %s at %s. Some features may be briefly unavailable.", event.ScheduledDate, event.ScheduledTime)
	}
	return e.broadcast(ctx, events.MaintenanceScheduled, "Scheduled Maintenance", message, enums.NotificationPriorityMedium, map[string]any{
		"scheduled_date": event.ScheduledDate,
		"scheduled_time": event.ScheduledTime,
	})
}

func (e *Engine) handleSystemUpdate(ctx context.Context, event events.Event) error {
	message := event.Reason
	if message == "" {
		message = "The platform has been updated with improvements and fixes."
	}
	return e.broadcast(ctx, events.SystemUpdate, "Platform Update", message, enums.NotificationPriorityLow, nil)
}

func (e *Engine) handlePromotionalOffer(ctx context.Context, event events.Event) error {
	title, _ := event.Metadata["title"].(string)
	if title == "" {
		title = "Special Offer"
	}
	message := event.Reason
	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotional_offer requires a message")
	}
	return e.broadcast(ctx, events.PromotionalOffer, title, message, enums.NotificationPriorityLow, event.Metadata)
}

func serviceNameOrDefault(event events.Event) string {
	if event.ServiceName != "" {
		return event.ServiceName
	}
	return "your service"
}

func nameFromEvent(event events.Event) string {
	if name, ok := event.Metadata["name"].(string); ok {
		return name
	}
	return ""
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
