package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"beatline/internal/service"
	"beatline/internal/transport/rest/handler"
	"beatline/internal/transport/rest/middleware"
	"beatline/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService *service.AuthService
	GameService *service.GameService
	WSHub       *ws.Hub

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.GameService)
	gameplayHandler := handler.NewGameplayHandler(c.GameService)
	trackHandler := handler.NewTrackHandler(c.GameService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/status", sessionHandler.Status).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/players", sessionHandler.Players).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/playlist", sessionHandler.LoadPlaylist).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/start", sessionHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/track/current", sessionHandler.CurrentTrack).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/track/next", sessionHandler.NextTrack).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/leaderboard", sessionHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/players/{playerId}/timeline", gameplayHandler.Timeline).Methods("GET", "OPTIONS")
	v1.HandleFunc("/tracks/search", trackHandler.Search).Methods("GET", "OPTIONS")
	v1.HandleFunc("/matches/recent", trackHandler.RecentMatches).Methods("GET", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Player routes (require player auth)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequirePlayer)

	playerRoutes.HandleFunc("/sessions/{sessionId}/leave", sessionHandler.Leave).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/sessions/{sessionId}/place", gameplayHandler.Place).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/sessions/{sessionId}/guess", gameplayHandler.Guess).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/sessions/{sessionId}/tokens/use", gameplayHandler.UseToken).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
