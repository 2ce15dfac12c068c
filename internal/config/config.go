package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the relay's runtime configuration, supplied via the
// environment. A .env file in the working directory is honored if present.
type Config struct {
	// ServerAddr is the address the HTTP/websocket listener binds to.
	ServerAddr string `env:"RELAY_ADDR" envDefault:":3001"`
	// SigningSecret is the shared secret used to verify bearer tokens on
	// trigger requests. The upstream application server signs with the
	// same secret.
	SigningSecret string `env:"RELAY_JWT_SECRET"`
	// AllowedOrigins restricts websocket and CORS origins. Empty means any
	// origin is accepted.
	AllowedOrigins []string `env:"RELAY_ALLOWED_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	// ignore a missing .env file, the environment may be set directly
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	return &cfg, nil
}
