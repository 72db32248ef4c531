package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: ограничить Origin списком доверенных доменов перед продакшеном.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService *services.TournamentService
}

func NewWebSocketHandler(hub *brackets.Hub, ts *services.TournamentService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournamentService: ts}
}

// ServeWs подключает клиента к комнате турнира: GET /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if _, err := h.tournamentService.State(r.Context(), tournamentID); err != nil {
		if errors.Is(err, services.ErrTournamentNotFound) {
			http.NotFound(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту при ошибке.
		slog.Warn("websocket upgrade failed",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: tournamentID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
