package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/services"
)

type TeamHandler struct {
	teamService *services.TeamService
	hub         *brackets.Hub
}

func NewTeamHandler(teamService *services.TeamService, hub *brackets.Hub) *TeamHandler {
	return &TeamHandler{teamService: teamService, hub: hub}
}

// RegisterHandler обрабатывает POST /tournaments/{tournamentID}/teams
func (h *TeamHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, events, err := h.teamService.Register(r.Context(), chi.URLParam(r, "tournamentID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	publishEvents(h.hub, events)

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tournaments/{tournamentID}/teams
func (h *TeamHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}/teams/{teamID}
func (h *TeamHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	team, err := h.teamService.Get(r.Context(),
		chi.URLParam(r, "tournamentID"), chi.URLParam(r, "teamID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnregisterHandler обрабатывает DELETE /tournaments/{tournamentID}/teams/{teamID}
// Снятие идемпотентно: повторный запрос отвечает 204 так же, как первый.
func (h *TeamHandler) UnregisterHandler(w http.ResponseWriter, r *http.Request) {
	_, err := h.teamService.Unregister(r.Context(),
		chi.URLParam(r, "tournamentID"), chi.URLParam(r, "teamID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RatingHistoryHandler обрабатывает GET /tournaments/{tournamentID}/teams/{teamID}/rating-history
func (h *TeamHandler) RatingHistoryHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.teamService.RatingHistory(r.Context(),
		chi.URLParam(r, "tournamentID"), chi.URLParam(r, "teamID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rating_history": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
