package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/starterkit/internal/cleanup"
	"github.com/starterkit/internal/config"
	"github.com/starterkit/internal/db"
	"github.com/starterkit/internal/http"
	"github.com/starterkit/internal/logger"
	"github.com/starterkit/internal/provider"
	"github.com/starterkit/internal/provider/local"
	"github.com/starterkit/internal/provider/supabase"
	"github.com/starterkit/internal/service"
)

func main() {
	// Load .env file if it exists (optional, won't error if missing)
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.InitLogger(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		log.Debug("No .env file loaded", "error", envErr)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	registry := provider.NewRegistry()
	registry.Register(supabase.Name, supabase.New)
	registry.Register(local.Name, local.New)

	opts := provider.Options{
		URL:         cfg.Provider.URL,
		APIKey:      cfg.Provider.AnonKey,
		Timeout:     cfg.Provider.Timeout,
		TokenSecret: cfg.Provider.TokenSecret,
		TokenTTL:    cfg.Provider.TokenTTL,
	}

	// The local provider keeps accounts in SQLite and needs its sessions purged
	if cfg.Provider.Name == local.Name {
		database, err := db.Init(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer database.Close()
		opts.Database = database

		cleaner := cleanup.NewSessionCleaner(database, cfg.Cleanup.Schedule, log)
		cleaner.RunOnce()
		if err := cleaner.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			cleaner.Stop(stopCtx)
		}()
	}

	authProvider, err := registry.Get(cfg.Provider.Name, opts)
	if err != nil {
		log.Error("Unknown auth provider", "provider", cfg.Provider.Name, "available", registry.List())
		return err
	}

	authService := service.NewAuthService(authProvider, log)
	server := http.NewServer(cfg, authService, log)

	return server.Run(ctx)
}
