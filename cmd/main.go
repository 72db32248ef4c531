package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/config"
	"github.com/joegr/turny/db"
	"github.com/joegr/turny/handlers"
	"github.com/joegr/turny/ratings"
	"github.com/joegr/turny/repositories"
	"github.com/joegr/turny/routes"
	"github.com/joegr/turny/services"
	"github.com/joegr/turny/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Загрузчик логотипов опционален: без R2 движок работает полностью.
	var uploader storage.FileUploader
	if cfg.R2 != nil {
		uploader, err = storage.NewCloudflareR2Uploader(*cfg.R2)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	store := repositories.NewPostgresStore(dbConn)
	calc := ratings.NewCalculator(cfg.Engine.KFactor)
	locks := services.NewTournamentLocks()

	tournamentService := services.NewTournamentService(store, calc, uploader, locks,
		cfg.Engine.DefaultMinTeams, cfg.Engine.DefaultMaxTeams)
	teamService := services.NewTeamService(store, locks, cfg.Engine.DefaultRating)
	matchService := services.NewMatchService(store, calc, locks)
	authService := services.NewAuthService(store.Users(), cfg.JWTSecretKey, cfg.TokenTTL)
	logger.Info("services initialized")

	// Планировщик автостарта: опубликованные турниры с прошедшим
	// scheduled_start стартуют сами, как только набрали минимум команд.
	if cfg.SchedulerInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SchedulerInterval)
			defer ticker.Stop()
			logger.Info("auto-start scheduler started", slog.Duration("interval", cfg.SchedulerInterval))

			for range ticker.C {
				events, err := tournamentService.AutoStartDue(context.Background(), time.Now())
				if err != nil {
					logger.Error("scheduler: auto-start run failed", slog.Any("error", err))
					continue
				}
				for _, event := range events {
					logger.Info("scheduler: tournament auto-started",
						slog.String("tournament_id", event.TournamentID))
					wsHub.BroadcastEvent(event)
				}
			}
		}()
	}

	router := routes.InitRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService, wsHub),
		Team:       handlers.NewTeamHandler(teamService, wsHub),
		Match:      handlers.NewMatchHandler(matchService, wsHub),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService),
	}, cfg.JWTSecretKey)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
