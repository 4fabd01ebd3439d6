package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/angelia"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware with request ID
	s.echo.Use(s.requestLoggerMiddleware())

	// CORS middleware (configure as needed)
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Custom error handler
	s.echo.HTTPErrorHandler = s.httpErrorHandler
}

// requestLoggerMiddleware creates a middleware that logs requests with context.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			// Create request-scoped logger
			logger := s.logger.With(
				slog.String("request_id", requestID),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)
			c.Set("logger", logger)

			err := next(c)

			// Log request completion. The error handler has not run yet
			// when a handler returns an error, so the response status is
			// derived from the error itself rather than read back.
			duration := time.Since(start)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = errorStatusCode(angelia.ErrorCode(err))
				}
			}

			logAttrs := []any{
				slog.Int("status", status),
				slog.Duration("duration", duration),
			}

			switch {
			case status >= 500:
				if err != nil {
					logAttrs = append(logAttrs, slog.String("error", err.Error()))
				}
				logger.Error("request failed", logAttrs...)
			case status >= 400:
				// Client errors are expected traffic; the error text is
				// omitted so rejected credentials never reach the logs.
				logger.Warn("request rejected", logAttrs...)
			default:
				logger.Info("request completed", logAttrs...)
			}

			return err
		}
	}
}

// httpErrorHandler handles errors and returns appropriate responses.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Check if it's an Echo HTTP error
	if he, ok := err.(*echo.HTTPError); ok {
		msg := he.Message
		if m, ok := msg.(string); ok {
			_ = c.JSON(he.Code, ErrorResponse{Error: httpErrorCode(he.Code), Detail: m})
		} else {
			_ = c.JSON(he.Code, map[string]any{"error": msg})
		}
		return
	}

	// Handle domain errors with the request-scoped logger so internal
	// error lines keep their request id.
	_ = HandleError(c, s.getRequestLogger(c), err)
}

// getRequestLogger retrieves the request-scoped logger from context.
func (s *Server) getRequestLogger(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}
