package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gharseva/gharseva-backend/api/responses"
	"github.com/gharseva/gharseva-backend/api/validators"
	"github.com/gharseva/gharseva-backend/internal/teams"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

type createTeamRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

type addTeamMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

func CreateTeam(svc teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createTeamRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		team, err := svc.Create(r.Context(), ownerID, req.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, team)
	}
}

func ListOwnedTeams(svc teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owned, err := svc.ListOwned(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"teams": owned})
	}
}

func AddTeamMember(svc teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		teamID, err := validators.ParsePathUUID(chi.URLParam(r, "teamId"), "teamId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addTeamMemberRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParsePathUUID(req.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.AddMember(r.Context(), actorID, teamID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

func RemoveTeamMember(svc teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		teamID, err := validators.ParsePathUUID(chi.URLParam(r, "teamId"), "teamId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParsePathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveMember(r.Context(), actorID, teamID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func ListTeamMembers(svc teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := validators.ParsePathUUID(chi.URLParam(r, "teamId"), "teamId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		members, err := svc.ListMembers(r.Context(), teamID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"members": members})
	}
}
