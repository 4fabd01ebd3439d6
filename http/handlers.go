package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/angelia"
	"github.com/labstack/echo/v4"
)

// bind binds the request body to a struct and validates it.
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return angelia.Invalid("Invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return angelia.Invalid("%s", err.Error())
	}
	return nil
}

// log returns the request-scoped logger.
func (s *Server) log(c echo.Context) *slog.Logger {
	return s.getRequestLogger(c)
}

// handleIndex returns service metadata.
func (s *Server) handleIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": ServiceName,
		"version": ServiceVersion,
		"status":  "running",
		"locale":  s.Locale,
		"endpoints": map[string]string{
			"health": "GET /health",
			"send":   "POST /send",
		},
	})
}

// handleHealthCheck reports service health and configuration state.
func (s *Server) handleHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]any{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"locale":            s.Locale,
		"smtp_configured":   s.mailer.Configured(),
		"tokens_configured": s.registry.Count(ctx),
		"logo_available":    s.mailer.LogoAvailable(),
	})
}
