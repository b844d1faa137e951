package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/api/middleware"
	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/internal/notifications"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

func recipientFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// actorFromRequest reads the optional ?adminUserId= stamp on the state
// transition endpoints. Only admins may stamp an actor; for everyone
// else the parameter is ignored.
func actorFromRequest(r *http.Request) (*uuid.UUID, error) {
	if middleware.RoleFromContext(r.Context()) != "admin" {
		return nil, nil
	}
	raw := strings.TrimSpace(r.URL.Query().Get("adminUserId"))
	if raw == "" {
		return nil, nil
	}
	parsed, err := validators.ParsePathUUID(raw, "adminUserId")
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func notificationListParams(r *http.Request, recipientID uuid.UUID) (notifications.ListParams, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return notifications.ListParams{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		return notifications.ListParams{}, err
	}
	return notifications.ListParams{
		RecipientID: recipientID,
		Page:        pagination.Params{Page: page, Limit: limit},
		Type:        strings.TrimSpace(r.URL.Query().Get("type")),
		Status:      strings.TrimSpace(r.URL.Query().Get("status")),
	}, nil
}

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := notificationListParams(r, recipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListProviderNotifications lets an admin inspect another recipient's feed.
func ListProviderNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := validators.ParsePathUUID(chi.URLParam(r, "providerId"), "providerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := notificationListParams(r, providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.UnreadCount(r.Context(), recipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unread_count": count})
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := validators.ParsePathUUID(chi.URLParam(r, "notificationId"), "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), recipientID, notificationID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkAllRead(r.Context(), recipientID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

func DismissNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := validators.ParsePathUUID(chi.URLParam(r, "notificationId"), "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Dismiss(r.Context(), recipientID, notificationID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}

// NotificationStats reports the caller's own stats; admins may pass
// ?recipient_id= for another user's, or ?global=true for the platform.
func NotificationStats(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := &recipientID
		isAdmin := middleware.RoleFromContext(r.Context()) == "admin"
		if isAdmin {
			if raw := strings.TrimSpace(r.URL.Query().Get("recipient_id")); raw != "" {
				parsed, err := validators.ParsePathUUID(raw, "recipient_id")
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				target = &parsed
			} else if strings.EqualFold(r.URL.Query().Get("global"), "true") {
				target = nil
			}
		}

		stats, err := svc.Stats(r.Context(), target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
