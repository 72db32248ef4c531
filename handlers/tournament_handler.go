package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/middleware"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/repositories"
	"github.com/joegr/turny/services"
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
	hub               *brackets.Hub
}

func NewTournamentHandler(ts *services.TournamentService, hub *brackets.Hub) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts, hub: hub}
}

// CreateHandler обрабатывает POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), &organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tournaments
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.TournamentFilter
	query := r.URL.Query()

	if stateStr := query.Get("state"); stateStr != "" {
		state := models.TournamentState(stateStr)
		if !models.IsValidState(state) {
			badRequestResponse(w, r, errors.New("invalid state query parameter"))
			return
		}
		filter.State = &state
	}
	if organizerStr := query.Get("organizer_id"); organizerStr != "" {
		id, err := strconv.Atoi(organizerStr)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("invalid organizer_id query parameter"))
			return
		}
		filter.OrganizerID = &id
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.Get(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PATCH /tournaments/{tournamentID}
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Update(r.Context(), chi.URLParam(r, "tournamentID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /tournaments/{tournamentID}
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.tournamentService.Delete(r.Context(), chi.URLParam(r, "tournamentID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StateHandler обрабатывает GET /tournaments/{tournamentID}/state
func (h *TournamentHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.tournamentService.State(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishHandler обрабатывает POST /tournaments/{tournamentID}/publish
func (h *TournamentHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.tournamentService.Publish)
}

// StartHandler обрабатывает POST /tournaments/{tournamentID}/start
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.tournamentService.Start)
}

// CancelHandler обрабатывает POST /tournaments/{tournamentID}/cancel
func (h *TournamentHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.tournamentService.Cancel)
}

// AdvanceHandler обрабатывает POST /tournaments/{tournamentID}/advance
func (h *TournamentHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.tournamentService.AdvanceStage)
}

// ArchiveHandler обрабатывает POST /tournaments/{tournamentID}/archive
func (h *TournamentHandler) ArchiveHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.tournamentService.Archive)
}

func (h *TournamentHandler) lifecycleAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string) ([]models.Event, error)) {
	id := chi.URLParam(r, "tournamentID")
	events, err := action(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	publishEvents(h.hub, events)

	view, err := h.tournamentService.State(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogoHandler обрабатывает POST /tournaments/{tournamentID}/logo
func (h *TournamentHandler) UploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("multipart field 'logo' is required"))
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadLogo(r.Context(),
		chi.URLParam(r, "tournamentID"), header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
