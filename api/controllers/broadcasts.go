package controllers

import (
	"net/http"

	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

type broadcastRequest struct {
	Type    string         `json:"type" validate:"required,oneof=maintenance_scheduled system_update promotional_offer"`
	Title   string         `json:"title" validate:"required,min=3"`
	Message string         `json:"message" validate:"required,min=3"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// AnnounceBroadcast accepts an admin announcement. The fan-out itself
// happens downstream once the 2xx response is observed, so this handler
// only validates and echoes the accepted payload.
func AnnounceBroadcast(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := recipientFromContext(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req broadcastRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{
			"type":    req.Type,
			"title":   req.Title,
			"message": req.Message,
			"meta":    req.Meta,
		})
	}
}
