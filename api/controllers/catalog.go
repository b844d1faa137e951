package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/internal/catalog"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

type createServiceRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Category    string  `json:"category" validate:"required,min=2"`
	Description *string `json:"description,omitempty"`
	BasePrice   string  `json:"base_price" validate:"required"`
}

type updateServiceRequest struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	BasePrice   *string `json:"base_price,omitempty"`
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "base_price must be a decimal amount")
	}
	return price, nil
}

func CreateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createServiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := parsePrice(req.BasePrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), catalog.CreateParams{
			Name:        req.Name,
			Category:    req.Category,
			Description: req.Description,
			BasePrice:   price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func UpdateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathUUID(chi.URLParam(r, "serviceId"), "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateServiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.UpdateParams{
			Name:        req.Name,
			Category:    req.Category,
			Description: req.Description,
		}
		if req.BasePrice != nil {
			price, err := parsePrice(*req.BasePrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.BasePrice = &price
		}

		updated, err := svc.Update(r.Context(), serviceID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DeactivateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathUUID(chi.URLParam(r, "serviceId"), "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deactivated, err := svc.Deactivate(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deactivated)
	}
}

// ListServices is public; unauthenticated callers only see active rows.
func ListServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		result, err := svc.List(r.Context(), catalog.ListParams{
			Page:       pagination.Params{Page: page, Limit: limit},
			Category:   r.URL.Query().Get("category"),
			ActiveOnly: true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ServiceDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := validators.ParsePathUUID(chi.URLParam(r, "serviceId"), "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offering, err := svc.Get(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offering)
	}
}
