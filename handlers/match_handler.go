package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/repositories"
	"github.com/joegr/turny/services"
)

type MatchHandler struct {
	matchService *services.MatchService
	hub          *brackets.Hub
}

func NewMatchHandler(matchService *services.MatchService, hub *brackets.Hub) *MatchHandler {
	return &MatchHandler{matchService: matchService, hub: hub}
}

// ListHandler обрабатывает GET /tournaments/{tournamentID}/matches
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.MatchFilter
	query := r.URL.Query()

	if roundStr := query.Get("round"); roundStr != "" {
		round, err := strconv.Atoi(roundStr)
		if err != nil || round <= 0 {
			badRequestResponse(w, r, errors.New("invalid round query parameter"))
			return
		}
		filter.Round = &round
	}
	if stageStr := query.Get("stage"); stageStr != "" {
		stage := models.MatchStage(stageStr)
		if stage != models.StageGroup && stage != models.StageKnockout {
			badRequestResponse(w, r, errors.New("invalid stage query parameter"))
			return
		}
		filter.Stage = &stage
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.MatchStatus(statusStr)
		switch status {
		case models.MatchStatusPending, models.MatchStatusCompleted, models.MatchStatusAbandoned:
			filter.Status = &status
		default:
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
	}

	matches, err := h.matchService.List(r.Context(), chi.URLParam(r, "tournamentID"), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler обрабатывает POST /tournaments/{tournamentID}/matches/{matchID}/result
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	events, err := h.matchService.RecordResult(r.Context(),
		chi.URLParam(r, "tournamentID"), chi.URLParam(r, "matchID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	publishEvents(h.hub, events)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AbandonHandler обрабатывает POST /tournaments/{tournamentID}/matches/{matchID}/abandon
func (h *MatchHandler) AbandonHandler(w http.ResponseWriter, r *http.Request) {
	events, err := h.matchService.Abandon(r.Context(),
		chi.URLParam(r, "tournamentID"), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	publishEvents(h.hub, events)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler обрабатывает GET /tournaments/{tournamentID}/standings
func (h *MatchHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	overall, groups, err := h.matchService.Standings(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var payload jsonResponse
	if groups != nil {
		payload = jsonResponse{"groups": groups}
	} else {
		payload = jsonResponse{"standings": overall}
	}
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
