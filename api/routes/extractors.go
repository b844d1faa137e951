package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/api/middleware"
	"github.com/gharseva/gharseva-backend/internal/auth"
	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// decodeData unmarshals the success envelope's data field into dest.
// Any shape mismatch suppresses the event rather than failing the
// request, which already completed.
func decodeData(body []byte, dest any) bool {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Data) == 0 {
		return false
	}
	return json.Unmarshal(envelope.Data, dest) == nil
}

// registrationExtractor fans a successful signup into welcome for
// customers or provider_registered for providers.
func registrationExtractor(r *http.Request, status int, body []byte) *events.Event {
	var session auth.Session
	if !decodeData(body, &session) || session.User == nil {
		return nil
	}

	event := events.Event{
		ActorID:    session.User.ID,
		ActorRole:  session.User.Role,
		EntityType: "user",
		EntityID:   session.User.ID,
		Metadata:   map[string]any{"name": session.User.FullName},
		OccurredAt: time.Now().UTC(),
	}
	if session.User.Role == enums.UserRoleProvider {
		event.Type = events.ProviderRegistered
		event.ProviderID = session.User.ID
	} else {
		event.Type = events.Welcome
	}
	return &event
}

func bookingExtractor(eventType string) middleware.EventExtractor {
	return func(r *http.Request, status int, body []byte) *events.Event {
		var booking models.Booking
		if !decodeData(body, &booking) || booking.ID == uuid.Nil {
			return nil
		}

		event := events.Event{
			Type:          eventType,
			CustomerID:    booking.CustomerID,
			EntityType:    "booking",
			EntityID:      booking.ID,
			ScheduledDate: booking.ScheduledDate,
			ScheduledTime: booking.ScheduledTime,
			Amount:        booking.Amount,
			OccurredAt:    time.Now().UTC(),
		}
		if booking.ProviderID != nil {
			event.ProviderID = *booking.ProviderID
		}
		if booking.CancelReason != nil {
			event.Reason = *booking.CancelReason
		}
		return &event
	}
}

func paymentExtractor(eventType string) middleware.EventExtractor {
	return func(r *http.Request, status int, body []byte) *events.Event {
		var payment models.Payment
		if !decodeData(body, &payment) || payment.ID == uuid.Nil {
			return nil
		}

		event := events.Event{
			Type:       eventType,
			CustomerID: payment.CustomerID,
			EntityType: "payment",
			EntityID:   payment.ID,
			Amount:     payment.Amount,
			Metadata:   map[string]any{"booking_id": payment.BookingID.String()},
			OccurredAt: time.Now().UTC(),
		}
		if payment.Method != nil {
			event.Metadata["payment_method"] = *payment.Method
		}
		if payment.FailureReason != nil {
			event.Reason = *payment.FailureReason
		}
		return &event
	}
}

// providerStatusExtractor reads either a bare user DTO or the
// {user, reason} shape the reject and suspend endpoints return.
func providerStatusExtractor(eventType string) middleware.EventExtractor {
	return func(r *http.Request, status int, body []byte) *events.Event {
		var wrapped struct {
			User   *users.UserDTO `json:"user"`
			Reason string         `json:"reason"`
		}
		var dto *users.UserDTO
		reason := ""
		if decodeData(body, &wrapped) && wrapped.User != nil {
			dto = wrapped.User
			reason = wrapped.Reason
		} else {
			var plain users.UserDTO
			if !decodeData(body, &plain) || plain.ID == uuid.Nil {
				return nil
			}
			dto = &plain
		}

		return &events.Event{
			Type:       eventType,
			ProviderID: dto.ID,
			EntityType: "provider",
			EntityID:   dto.ID,
			Reason:     reason,
			Metadata:   map[string]any{"name": dto.FullName},
			OccurredAt: time.Now().UTC(),
		}
	}
}

func profileCompletedExtractor(r *http.Request, status int, body []byte) *events.Event {
	var dto users.UserDTO
	if !decodeData(body, &dto) || dto.ID == uuid.Nil {
		return nil
	}
	return &events.Event{
		Type:       events.ProfileCompleted,
		ActorID:    dto.ID,
		EntityType: "user",
		EntityID:   dto.ID,
		OccurredAt: time.Now().UTC(),
	}
}

func catalogExtractor(eventType string) middleware.EventExtractor {
	return func(r *http.Request, status int, body []byte) *events.Event {
		var offering models.Service
		if !decodeData(body, &offering) || offering.ID == uuid.Nil {
			return nil
		}
		return &events.Event{
			Type:        eventType,
			EntityType:  "service",
			EntityID:    offering.ID,
			ServiceName: offering.Name,
			OccurredAt:  time.Now().UTC(),
		}
	}
}

func teamCreatedExtractor(r *http.Request, status int, body []byte) *events.Event {
	var team models.Team
	if !decodeData(body, &team) || team.ID == uuid.Nil {
		return nil
	}
	return &events.Event{
		Type:       events.TeamCreated,
		ActorID:    team.OwnerID,
		EntityType: "team",
		EntityID:   team.ID,
		Metadata:   map[string]any{"name": team.Name},
		OccurredAt: time.Now().UTC(),
	}
}

func teamMemberAddedExtractor(r *http.Request, status int, body []byte) *events.Event {
	var member models.TeamMember
	if !decodeData(body, &member) || member.ID == uuid.Nil {
		return nil
	}
	return &events.Event{
		Type:       events.TeamMemberAdded,
		ProviderID: member.UserID,
		EntityType: "team",
		EntityID:   member.TeamID,
		OccurredAt: time.Now().UTC(),
	}
}

// teamMemberRemovedExtractor pulls ids from the route because the
// response body carries no identifiers for a removal.
func teamMemberRemovedExtractor(r *http.Request, status int, body []byte) *events.Event {
	teamID, err := uuid.Parse(chi.URLParam(r, "teamId"))
	if err != nil {
		return nil
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		return nil
	}
	return &events.Event{
		Type:       events.TeamMemberRemoved,
		ProviderID: userID,
		EntityType: "team",
		EntityID:   teamID,
		OccurredAt: time.Now().UTC(),
	}
}

func broadcastExtractor(r *http.Request, status int, body []byte) *events.Event {
	var announcement struct {
		Type    string         `json:"type"`
		Title   string         `json:"title"`
		Message string         `json:"message"`
		Meta    map[string]any `json:"meta"`
	}
	if !decodeData(body, &announcement) || announcement.Type == "" {
		return nil
	}

	metadata := map[string]any{"title": announcement.Title}
	for key, value := range announcement.Meta {
		metadata[key] = value
	}
	event := events.Event{
		Type:       announcement.Type,
		Reason:     announcement.Message,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	if date, ok := announcement.Meta["scheduled_date"].(string); ok {
		event.ScheduledDate = date
	}
	if timeOfDay, ok := announcement.Meta["scheduled_time"].(string); ok {
		event.ScheduledTime = timeOfDay
	}
	return &event
}
