package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/joegr/turny/handlers"
	"github.com/joegr/turny/middleware"
	"github.com/joegr/turny/models"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Team       *handlers.TeamHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", h.Auth.RegisterHandler)
	router.Post("/auth/login", h.Auth.LoginHandler)

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты просмотра
		r.Get("/", h.Tournament.ListHandler)
		r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
		r.Get("/{tournamentID}/state", h.Tournament.StateHandler)
		r.Get("/{tournamentID}/teams", h.Team.ListHandler)
		r.Get("/{tournamentID}/teams/{teamID}", h.Team.GetByIDHandler)
		r.Get("/{tournamentID}/teams/{teamID}/rating-history", h.Team.RatingHistoryHandler)
		r.Get("/{tournamentID}/matches", h.Match.ListHandler)
		r.Get("/{tournamentID}/standings", h.Match.StandingsHandler)

		// Регистрация команд открыта без аккаунта: капитаны аккаунтов не имеют.
		r.Post("/{tournamentID}/teams", h.Team.RegisterHandler)
		r.Delete("/{tournamentID}/teams/{teamID}", h.Team.UnregisterHandler)

		// Управление турниром — только организаторы
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleOrganizer, models.RoleAdmin))

			r.Post("/", h.Tournament.CreateHandler)
			r.Patch("/{tournamentID}", h.Tournament.UpdateHandler)
			r.Delete("/{tournamentID}", h.Tournament.DeleteHandler)
			r.Post("/{tournamentID}/logo", h.Tournament.UploadLogoHandler)

			r.Post("/{tournamentID}/publish", h.Tournament.PublishHandler)
			r.Post("/{tournamentID}/start", h.Tournament.StartHandler)
			r.Post("/{tournamentID}/cancel", h.Tournament.CancelHandler)
			r.Post("/{tournamentID}/advance", h.Tournament.AdvanceHandler)
			r.Post("/{tournamentID}/archive", h.Tournament.ArchiveHandler)

			r.Post("/{tournamentID}/matches/{matchID}/result", h.Match.RecordResultHandler)
			r.Post("/{tournamentID}/matches/{matchID}/abandon", h.Match.AbandonHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	return router
}
