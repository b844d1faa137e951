package notifications

import (
	"fmt"

	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
)

// BookingData carries the schedule fields substituted into booking
// notification templates.
type BookingData struct {
	ServiceName    string
	ScheduledDate  string
	ScheduledTime  string
	ServiceAddress string
	Reason         string
}

// PaymentData carries the fields substituted into payment notification
// templates.
type PaymentData struct {
	Amount        string
	BookingID     string
	PaymentMethod string
}

type renderedTemplate struct {
	Title    string
	Message  string
	Priority enums.NotificationPriority
}

// bookingTemplate renders the customer-facing notice for a booking
// lifecycle change. Unknown sub-events are rejected before any write.
func bookingTemplate(eventType string, data BookingData) (renderedTemplate, error) {
	serviceName := data.ServiceName
	if serviceName == "" {
		serviceName = "your service"
	}

	switch eventType {
	case "assigned":
		return renderedTemplate{
			Title:    "Provider Assigned",
			Message:  fmt.Sprintf("A provider has been assigned to %s scheduled for %s at %s.", serviceName, data.ScheduledDate, data.ScheduledTime),
			Priority: enums.NotificationPriorityMedium,
		}, nil
	case "confirmed":
		return renderedTemplate{
			Title:    "Booking Confirmed",
			Message:  fmt.Sprintf("Your booking for %s on %s at %s has been confirmed.", serviceName, data.ScheduledDate, data.ScheduledTime),
			Priority: enums.NotificationPriorityMedium,
		}, nil
	case "started":
		return renderedTemplate{
			Title:    "Service Started",
			Message:  fmt.Sprintf("Work on %s scheduled for %s has started at %s.", serviceName, data.ScheduledDate, data.ServiceAddress),
			Priority: enums.NotificationPriorityMedium,
		}, nil
	case "completed":
		return renderedTemplate{
			Title:    "Service Completed",
			Message:  fmt.Sprintf("Your booking for %s on %s has been completed. We hope everything went well.", serviceName, data.ScheduledDate),
			Priority: enums.NotificationPriorityMedium,
		}, nil
	case "cancelled":
		msg := fmt.Sprintf("Your booking for %s on %s has been cancelled.", serviceName, data.ScheduledDate)
		if data.Reason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, data.Reason)
		}
		return renderedTemplate{
			Title:    "Booking Cancelled",
			Message:  msg,
			Priority: enums.NotificationPriorityHigh,
		}, nil
	default:
		return renderedTemplate{}, pkgerrors.New(pkgerrors.CodeUnknownEvent, "unknown booking event: "+eventType)
	}
}

// paymentTemplate renders the customer-facing notice for a payment outcome.
func paymentTemplate(eventType string, data PaymentData) (renderedTemplate, error) {
	switch eventType {
	case "success":
		return renderedTemplate{
			Title:    "Payment Successful",
			Message:  fmt.Sprintf("Your payment of %s for booking %s via %s was successful.", data.Amount, data.BookingID, data.PaymentMethod),
			Priority: enums.NotificationPriorityMedium,
		}, nil
	case "failed":
		return renderedTemplate{
			Title:    "Payment Failed",
			Message:  fmt.Sprintf("Your payment of %s for booking %s via %s could not be processed. Please try again.", data.Amount, data.BookingID, data.PaymentMethod),
			Priority: enums.NotificationPriorityHigh,
		}, nil
	case "refunded":
		return renderedTemplate{
			Title:    "Payment Refunded",
			Message:  fmt.Sprintf("A refund of %s for booking %s has been issued to your %s.", data.Amount, data.BookingID, data.PaymentMethod),
			Priority: enums.NotificationPriorityMedium,
		}, nil
	default:
		return renderedTemplate{}, pkgerrors.New(pkgerrors.CodeUnknownEvent, "unknown payment event: "+eventType)
	}
}
