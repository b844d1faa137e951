package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gharseva/gharseva-backend/api/controllers"
	"github.com/gharseva/gharseva-backend/api/middleware"
	"github.com/gharseva/gharseva-backend/internal/auth"
	"github.com/gharseva/gharseva-backend/internal/automation"
	"github.com/gharseva/gharseva-backend/internal/bookings"
	"github.com/gharseva/gharseva-backend/internal/catalog"
	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/internal/notifications"
	"github.com/gharseva/gharseva-backend/internal/payments"
	"github.com/gharseva/gharseva-backend/internal/providers"
	"github.com/gharseva/gharseva-backend/internal/teams"
	"github.com/gharseva/gharseva-backend/pkg/config"
	"github.com/gharseva/gharseva-backend/pkg/db"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. The dispatcher and
// engine power the notification middlewares hung off individual routes.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Metrics    *prometheus.Registry
	Auth       auth.Service
	Bookings   bookings.Service
	Payments   payments.Service
	Providers  providers.Service
	Catalog    catalog.Service
	Teams      teams.Service
	Notifs     notifications.Service
	Engine     *automation.Engine
	Dispatcher *automation.Dispatcher
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	notify := func(extract middleware.EventExtractor) func(http.Handler) http.Handler {
		return middleware.NotifyOn(deps.Dispatcher, logg, extract)
	}
	cleanup := middleware.CleanupNotifications(
		deps.Engine,
		logg,
		cfg.Notifications.RetentionDays,
		cfg.Notifications.CleanupProbability,
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			notify(registrationExtractor),
		).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
	})

	// Public catalog browsing.
	r.Route("/api/v1/services", func(r chi.Router) {
		r.Get("/", controllers.ListServices(deps.Catalog, logg))
		r.Get("/{serviceId}", controllers.ServiceDetail(deps.Catalog, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Use(cleanup)
			r.Get("/", controllers.ListNotifications(deps.Notifs, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifs, logg))
			r.Get("/stats", controllers.NotificationStats(deps.Notifs, logg))
			r.Put("/mark-all-read", controllers.MarkAllNotificationsRead(deps.Notifs, logg))
			r.Put("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifs, logg))
			r.Put("/{notificationId}/dismiss", controllers.DismissNotification(deps.Notifs, logg))
			r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin)).
				Get("/provider/{providerId}", controllers.ListProviderNotifications(deps.Notifs, logg))
		})

		r.Route("/v1/bookings", func(r chi.Router) {
			r.Use(cleanup)
			r.With(notify(bookingExtractor(events.BookingCreated))).
				Post("/", controllers.CreateBooking(deps.Bookings, logg))
			r.With(middleware.AddNotificationStats(deps.Engine, logg)).
				Get("/", controllers.ListBookings(deps.Bookings, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(deps.Bookings, logg))

			r.With(
				middleware.RequireRoles(logg, enums.UserRoleAdmin),
				notify(bookingExtractor(events.BookingAssigned)),
			).Post("/{bookingId}/assign", controllers.AssignBooking(deps.Bookings, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleProvider))
				r.With(notify(bookingExtractor(events.BookingConfirmed))).
					Post("/{bookingId}/confirm", controllers.ConfirmBooking(deps.Bookings, logg))
				r.With(notify(bookingExtractor(events.BookingStarted))).
					Post("/{bookingId}/start", controllers.StartBooking(deps.Bookings, logg))
				r.With(notify(bookingExtractor(events.BookingCompleted))).
					Post("/{bookingId}/complete", controllers.CompleteBooking(deps.Bookings, logg))
			})

			r.With(notify(bookingExtractor(events.BookingCancelled))).
				Post("/{bookingId}/cancel", controllers.CancelBooking(deps.Bookings, logg))
			r.With(notify(bookingExtractor(events.BookingRescheduled))).
				Post("/{bookingId}/reschedule", controllers.RescheduleBooking(deps.Bookings, logg))
		})

		r.Route("/v1/payments", func(r chi.Router) {
			r.Post("/order", controllers.CreatePaymentOrder(deps.Payments, logg))
			r.With(notify(paymentExtractor(events.PaymentSuccess))).
				Post("/verify", controllers.VerifyPayment(deps.Payments, logg))
			r.With(notify(paymentExtractor(events.PaymentFailed))).
				Post("/fail", controllers.FailPayment(deps.Payments, logg))
			r.Get("/", controllers.ListPayments(deps.Payments, logg))
		})

		r.Route("/v1/providers", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleProvider))
			r.Get("/me", controllers.ProviderProfile(deps.Providers, logg))
			r.With(notify(profileCompletedExtractor)).
				Post("/identity", controllers.SubmitProviderIdentity(deps.Providers, logg))
		})

		r.Route("/v1/teams", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleProvider))
			r.With(notify(teamCreatedExtractor)).
				Post("/", controllers.CreateTeam(deps.Teams, logg))
			r.Get("/", controllers.ListOwnedTeams(deps.Teams, logg))
			r.Get("/{teamId}/members", controllers.ListTeamMembers(deps.Teams, logg))
			r.With(notify(teamMemberAddedExtractor)).
				Post("/{teamId}/members", controllers.AddTeamMember(deps.Teams, logg))
			r.With(notify(teamMemberRemovedExtractor)).
				Delete("/{teamId}/members/{userId}", controllers.RemoveTeamMember(deps.Teams, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/v1/providers", func(r chi.Router) {
			r.With(notify(providerStatusExtractor(events.ProviderVerified))).
				Post("/{providerId}/verify", controllers.VerifyProvider(deps.Providers, logg))
			r.With(notify(providerStatusExtractor(events.ProviderRejected))).
				Post("/{providerId}/reject", controllers.RejectProvider(deps.Providers, logg))
			r.With(notify(providerStatusExtractor(events.ProviderSuspended))).
				Post("/{providerId}/suspend", controllers.SuspendProvider(deps.Providers, logg))
			r.With(notify(providerStatusExtractor(events.ProviderReactivated))).
				Post("/{providerId}/reactivate", controllers.ReactivateProvider(deps.Providers, logg))
		})

		r.Route("/v1/services", func(r chi.Router) {
			r.With(notify(catalogExtractor(events.ServiceCreated))).
				Post("/", controllers.CreateService(deps.Catalog, logg))
			r.With(notify(catalogExtractor(events.ServiceUpdated))).
				Patch("/{serviceId}", controllers.UpdateService(deps.Catalog, logg))
			r.With(notify(catalogExtractor(events.ServiceDeactivated))).
				Delete("/{serviceId}", controllers.DeactivateService(deps.Catalog, logg))
		})

		r.With(notify(paymentExtractor(events.PaymentRefunded))).
			Post("/v1/payments/{paymentId}/refund", controllers.RefundPayment(deps.Payments, logg))

		r.With(notify(broadcastExtractor)).
			Post("/v1/broadcasts", controllers.AnnounceBroadcast(logg))
	})

	return r
}
