package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gharseva/gharseva-backend/pkg/enums"
)

// Event types dispatched through the automation engine. Every API surface
// that changes marketplace state emits one of these after the response is
// written.
const (
	BookingCreated     = "booking_created"
	BookingAssigned    = "booking_assigned"
	BookingConfirmed   = "booking_confirmed"
	BookingStarted     = "booking_started"
	BookingCompleted   = "booking_completed"
	BookingCancelled   = "booking_cancelled"
	BookingRescheduled = "booking_rescheduled"

	PaymentSuccess  = "payment_success"
	PaymentFailed   = "payment_failed"
	PaymentRefunded = "payment_refunded"

	ProviderRegistered  = "provider_registered"
	ProviderVerified    = "provider_verified"
	ProviderRejected    = "provider_rejected"
	ProviderSuspended   = "provider_suspended"
	ProviderReactivated = "provider_reactivated"
	ProfileCompleted    = "profile_completed"
	Welcome             = "welcome"

	ServiceCreated     = "service_created"
	ServiceUpdated     = "service_updated"
	ServiceDeactivated = "service_deactivated"

	TeamCreated       = "team_created"
	TeamMemberAdded   = "team_member_added"
	TeamMemberRemoved = "team_member_removed"

	MaintenanceScheduled = "maintenance_scheduled"
	SystemUpdate         = "system_update"
	PromotionalOffer     = "promotional_offer"
)

// Event carries everything a handler needs to build notifications for one
// marketplace occurrence. Fields beyond Type are optional; each handler
// reads the subset it cares about.
type Event struct {
	Type string

	// ActorID is the user whose request produced the event, when known.
	ActorID   uuid.UUID
	ActorRole enums.UserRole

	// CustomerID and ProviderID identify notification recipients for
	// booking and payment events.
	CustomerID uuid.UUID
	ProviderID uuid.UUID

	// EntityType and EntityID link notifications back to the source row.
	EntityType string
	EntityID   uuid.UUID

	ServiceName   string
	ScheduledDate string
	ScheduledTime string
	Amount        decimal.Decimal
	Reason        string

	// Metadata is merged into the notification metadata bag verbatim.
	Metadata map[string]any

	OccurredAt time.Time
}
