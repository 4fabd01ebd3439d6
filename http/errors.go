package http

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/angelia"
	"github.com/labstack/echo/v4"
)

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case angelia.ENOTFOUND:
		return http.StatusNotFound
	case angelia.EINVALID:
		return http.StatusBadRequest
	case angelia.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case angelia.EFORBIDDEN:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// httpErrorCode maps an HTTP status code back to a domain error code,
// for errors raised by the framework rather than the domain.
func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return angelia.ENOTFOUND
	case http.StatusBadRequest:
		return angelia.EINVALID
	case http.StatusUnauthorized:
		return angelia.EUNAUTHORIZED
	case http.StatusForbidden:
		return angelia.EFORBIDDEN
	default:
		return angelia.EINTERNAL
	}
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// HandleError converts domain errors to appropriate HTTP responses.
// It logs internal errors and returns user-safe messages.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	code := angelia.ErrorCode(err)
	message := angelia.ErrorMessage(err)
	status := errorStatusCode(code)

	// Log internal errors with full details
	if code == angelia.EINTERNAL {
		logger.Error("internal error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
	}

	return c.JSON(status, ErrorResponse{
		Error:  code,
		Detail: message,
	})
}
