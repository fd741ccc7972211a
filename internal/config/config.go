// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	MongoURI  string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB   string `env:"MONGO_DB" envDefault:"beatline"`

	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	JWTSecret string `env:"JWT_SECRET"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// WinCondition is the number of timeline cards needed to win a game.
	WinCondition int `env:"WIN_CONDITION" envDefault:"10"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Tolerate redis:// style addresses.
	cfg.RedisAddr = strings.TrimPrefix(cfg.RedisAddr, "redis://")

	if cfg.WinCondition <= 0 {
		return nil, fmt.Errorf("WIN_CONDITION must be positive, got %d", cfg.WinCondition)
	}
	return cfg, nil
}
