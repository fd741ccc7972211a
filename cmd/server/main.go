package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"beatline/internal/cache"
	"beatline/internal/config"
	"beatline/internal/repository"
	"beatline/internal/service"
	"beatline/internal/spotify"
	"beatline/internal/store"
	"beatline/internal/transport/rest"
	"beatline/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Track provider
	provider := spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	if !provider.IsConfigured() {
		log.Println("Warning: Spotify credentials not set, playlist loading will fail")
	}

	// Session store (in-memory, hub as notifier)
	sessions := store.NewMemory(provider, wsHub, cfg.WinCondition)

	// Repositories and caches
	historyRepo := repository.NewHistoryRepo(db)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	tokenSvc := service.NewTokenService()
	gameSvc := service.NewGameService(sessions, provider, tokenSvc, authSvc, leaderboard, historyRepo)

	// A dropped WebSocket counts as leaving the game
	wsHub.SetDisconnectHandler(func(sessionID, playerID string) {
		if err := gameSvc.LeaveSession(sessionID, playerID); err != nil {
			log.Printf("Disconnect cleanup for %s/%s: %v", sessionID, playerID, err)
		}
	})

	// Create router with container
	container := &rest.Container{
		AuthService:        authSvc,
		GameService:        gameSvc,
		WSHub:              wsHub,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST/GET /v1/sessions")
		log.Println("  POST /v1/sessions/{sessionId}/join")
		log.Println("  POST /v1/sessions/{sessionId}/playlist")
		log.Println("  POST /v1/sessions/{sessionId}/start")
		log.Println("  POST /v1/sessions/{sessionId}/place")
		log.Println("  POST /v1/sessions/{sessionId}/tokens/use")
		log.Println("  GET  /v1/tracks/search")
		log.Println("  GET  /v1/matches/recent")
		log.Println("  WS   /v1/ws/sessions/{sessionId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
