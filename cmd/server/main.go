package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"molehunt/config"
	"molehunt/internal/auth"
	"molehunt/internal/content"
	"molehunt/internal/game"
	"molehunt/internal/transport/rest"
	"molehunt/internal/transport/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	// Load location packs
	provider, err := content.Load(cfg.PackDir)
	if err != nil {
		log.Fatal("Failed to load location packs:", err)
	}
	log.Printf("Location packs loaded: %v", provider.PackIDs())

	// Game engine
	durations := game.DefaultDurations()
	durations.Vote = time.Duration(cfg.VoteSeconds) * time.Second
	durations.DisconnectGrace = time.Duration(cfg.DisconnectGraceSeconds) * time.Second
	durations.ReconnectWindow = time.Duration(cfg.ReconnectWindowSeconds) * time.Second
	engine := game.NewEngine(provider, cfg.Settings(), durations)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	// WebSocket hub
	wsHub := ws.NewHub(engine)
	engine.SetBroadcaster(wsHub)
	log.Println("WebSocket hub started")

	// Auth service
	authSvc := auth.NewService(cfg)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		Engine:         engine,
		Provider:       provider,
		WSHub:          wsHub,
		PublicBaseURL:  cfg.PublicBaseURL,
		MaxConnections: cfg.MaxConnections,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  GET  /v1/packs")
		log.Println("  GET  /v1/packs/{id}/locations")
		log.Println("  GET  /v1/join/link")
		log.Println("  GET  /v1/join/qr")
		log.Println("  GET  /v1/session (host)")
		log.Println("  WS   /v1/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
