package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starterkit/internal/config"
	"github.com/starterkit/internal/domain"
	"github.com/starterkit/internal/session"
)

// Server wraps the HTTP server
type Server struct {
	config      *config.Config
	authService domain.AuthService
	cookies     *session.Codec
	engine      *gin.Engine
	logger      *slog.Logger
}

const (
	maxBodySize     = 64 << 10 // form posts are tiny
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second // provider timeout plus rendering
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, authService domain.AuthService, logger *slog.Logger) *Server {
	// Set Gin mode based on environment
	switch cfg.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	if logger == nil {
		logger = slog.Default()
	}

	// gin's own request logger is replaced by the slog one below
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Middleware - order matters
	engine.Use(requestIDMiddleware())
	engine.Use(securityHeadersMiddleware())
	engine.Use(cacheControlMiddleware())
	engine.Use(loggerMiddleware(logger))
	engine.Use(bodyLimitMiddleware(maxBodySize))

	engine.MaxMultipartMemory = maxBodySize

	server := &Server{
		config:      cfg,
		authService: authService,
		cookies:     session.NewCodec(cfg.Cookie),
		engine:      engine,
		logger:      logger,
	}

	server.setupRoutes()

	return server
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	// Configure server with timeouts
	server := &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "address", addr, "provider", s.authService.ProviderName())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
