package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/internal/providers"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

type submitIdentityRequest struct {
	DocumentImage string `json:"document_image" validate:"required"`
}

type rejectProviderRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type suspendProviderRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// SubmitProviderIdentity accepts a base64 Aadhaar image from the
// authenticated provider and runs OCR extraction on it.
func SubmitProviderIdentity(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req submitIdentityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		image, err := base64.StdEncoding.DecodeString(req.DocumentImage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "document_image must be base64"))
			return
		}

		dto, err := svc.SubmitIdentity(r.Context(), providerID, image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ProviderProfile(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func providerDecision(logg *logger.Logger, run func(providerID uuid.UUID, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := validators.ParsePathUUID(chi.URLParam(r, "providerId"), "providerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := run(providerID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func VerifyProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return providerDecision(logg, func(providerID uuid.UUID, r *http.Request) (any, error) {
		return svc.Verify(r.Context(), providerID)
	})
}

func RejectProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return providerDecision(logg, func(providerID uuid.UUID, r *http.Request) (any, error) {
		var req rejectProviderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		dto, err := svc.Reject(r.Context(), providerID, req.Reason)
		if err != nil {
			return nil, err
		}
		return map[string]any{"user": dto, "reason": req.Reason}, nil
	})
}

func SuspendProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return providerDecision(logg, func(providerID uuid.UUID, r *http.Request) (any, error) {
		var req suspendProviderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		dto, err := svc.Suspend(r.Context(), providerID, req.Reason)
		if err != nil {
			return nil, err
		}
		return map[string]any{"user": dto, "reason": req.Reason}, nil
	})
}

func ReactivateProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return providerDecision(logg, func(providerID uuid.UUID, r *http.Request) (any, error) {
		return svc.Reactivate(r.Context(), providerID)
	})
}
