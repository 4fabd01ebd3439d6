package http

import (
	"context"
	"log/slog"
	"net"

	"github.com/dukerupert/angelia"
	"github.com/labstack/echo/v4"
)

// ServiceName and ServiceVersion identify the service in the metadata
// and health endpoints.
const (
	ServiceName    = "angelia"
	ServiceVersion = "1.0.0"
)

// Server represents the HTTP server with all its dependencies.
type Server struct {
	echo   *echo.Echo
	ln     net.Listener
	logger *slog.Logger

	// Configuration
	Addr   string
	Locale string

	// Domain services
	registry angelia.TokenRegistry
	mailer   angelia.Mailer
}

// Config holds the configuration for creating a new Server.
type Config struct {
	Addr   string
	Locale string
	Logger *slog.Logger

	// Request validation
	Validator echo.Validator

	// Domain services
	Registry angelia.TokenRegistry
	Mailer   angelia.Mailer
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:     cfg.Addr,
		Locale:   cfg.Locale,
		logger:   cfg.Logger,
		registry: cfg.Registry,
		mailer:   cfg.Mailer,
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true

	if cfg.Validator != nil {
		s.echo.Validator = cfg.Validator
	}

	// Register middleware and routes
	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// Echo returns the underlying Echo instance.
// Use sparingly - prefer registering routes through Server methods.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Open starts the HTTP server.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.echo.Server.Serve(s.ln); err != nil {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("server started", slog.String("addr", s.Addr))
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// URL returns the URL of the server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}
