package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	angeliahttp "github.com/dukerupert/angelia/http"
	"github.com/dukerupert/angelia/internal/validation"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point for the application, designed for testability.
// It accepts all external dependencies (IO, args, env) as parameters.
func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	args []string,
	getenv func(string) string,
) error {
	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	cfg := LoadConfig(getenv)

	// Configure logger
	logger := newLogger(stderr, cfg)
	slog.SetDefault(logger)
	logger.Debug("logger initialized", slog.String("level", cfg.LogLevel))
	logger.Info("application configuration",
		slog.String("environment", cfg.Environment),
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("smtp", fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)),
		slog.String("from", cfg.FromEmail),
		slog.String("config_file", cfg.ConfigFile),
		slog.String("logo_path", cfg.LogoPath),
		slog.String("locale", cfg.Locale))

	// Initialize services
	services := initServices(cfg, logger)
	if !services.Mailer.Configured() {
		logger.Warn("SMTP credentials incomplete, sends will fail until configured")
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := angeliahttp.NewServer(angeliahttp.Config{
		Addr:      addr,
		Locale:    cfg.Locale,
		Logger:    logger,
		Validator: validation.NewValidator(),
		Registry:  services.Registry,
		Mailer:    services.Mailer,
	})

	// Create channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", addr))
		if err := server.Open(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	// Graceful shutdown
	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()

	if err := server.Close(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

// newLogger creates a configured slog.Logger based on environment.
func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Environment == "prod" || cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: level})
	}

	return slog.New(handler)
}
