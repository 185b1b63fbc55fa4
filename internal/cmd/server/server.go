// Package server parses configuration and runs the HTTP API server.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/teamsplit/teamsplit/internal/app/server"
	"github.com/teamsplit/teamsplit/internal/platform/config"
	"github.com/teamsplit/teamsplit/internal/platform/otel"
)

// Config holds server command configuration.
type Config struct {
	Addr        string `env:"TEAMSPLIT_HTTP_ADDR"`
	DBPath      string `env:"TEAMSPLIT_DB_PATH"`
	TokenSecret string `env:"TEAMSPLIT_TOKEN_SECRET"`
}

// ParseConfig reads env first, then lets flags override.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		Addr:   ":8080",
		DBPath: "data/teamsplit.db",
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The HTTP server address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "The access token signing secret")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("token secret is required (TEAMSPLIT_TOKEN_SECRET or -token-secret)")
	}
	return cfg, nil
}

// Run starts the server with optional tracing until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "teamsplit")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	return server.Run(ctx, server.Options{
		Addr:        cfg.Addr,
		DBPath:      cfg.DBPath,
		TokenSecret: cfg.TokenSecret,
	})
}
