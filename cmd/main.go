package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hallway-live/room-service/internal/config"
	"github.com/hallway-live/room-service/internal/handler"
	"github.com/hallway-live/room-service/internal/hub"
	"github.com/hallway-live/room-service/internal/repository"
	"github.com/hallway-live/room-service/internal/room"
	"github.com/hallway-live/room-service/pkg/database"
	"github.com/hallway-live/room-service/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting room service")

	// Connect durable storage
	db, err := database.New(cfg.Database.Database())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	store := repository.NewGormMessageStore(db)
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database connected")

	// Room actors and connection hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := hub.New()
	rooms := room.NewRegistry(ctx, store, wsHub)

	// HTTP surface
	wsHandler := handler.NewWSHandler(wsHub, rooms, cfg.WebSocket)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      log.HTTPMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down room service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("room service stopped")
}
