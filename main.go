package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/forum-be/internal/api"
	"github.com/isdelr/forum-be/internal/auth"
	"github.com/isdelr/forum-be/internal/config"
	"github.com/isdelr/forum-be/internal/database"
	"github.com/isdelr/forum-be/internal/logger"
	"github.com/isdelr/forum-be/internal/monitoring"
	"github.com/isdelr/forum-be/internal/services"
	"github.com/isdelr/forum-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up token service and domain services
	tokens := auth.NewTokenService(cfg.JWTSecret)
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db)
	forumService := services.NewForumService(db, eventService)

	// Set up and run the background stats updater
	statUpdater, err := monitoring.NewStatUpdater(db, hub, cfg.StatsCron)
	if err != nil {
		log.Fatal().Err(err).Str("cron", cfg.StatsCron).Msg("Invalid stats schedule")
	}
	go statUpdater.Run()

	// Set up router
	router := api.NewRouter(tokens, userService, forumService, eventService, statUpdater, hub, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
