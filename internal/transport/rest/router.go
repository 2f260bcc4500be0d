package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"molehunt/internal/auth"
	"molehunt/internal/content"
	"molehunt/internal/game"
	"molehunt/internal/transport/rest/handler"
	"molehunt/internal/transport/rest/middleware"
	"molehunt/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *auth.Service
	Engine         *game.Engine
	Provider       *content.Provider
	WSHub          *ws.Hub
	PublicBaseURL  string
	MaxConnections int
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	packsHandler := handler.NewPacksHandler(c.Provider)
	joinHandler := handler.NewJoinHandler(c.PublicBaseURL)
	sessionHandler := handler.NewSessionHandler(c.Engine)
	wsHandler := ws.NewHandler(c.WSHub, c.Engine, c.AuthService, c.MaxConnections)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/packs", packsHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/packs/{id}/locations", packsHandler.Locations).Methods("GET", "OPTIONS")
	v1.HandleFunc("/join/link", joinHandler.Link).Methods("GET", "OPTIONS")
	v1.HandleFunc("/join/qr", joinHandler.QR).Methods("GET")

	// WebSocket route (session restore token in query param)
	v1.HandleFunc("/ws", wsHandler.GameWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/session", sessionHandler.Get).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
