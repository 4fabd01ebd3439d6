package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/angelia"
	"github.com/labstack/echo/v4"
)

// SendRequest represents a notification dispatch request.
type SendRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SendResponse confirms a dispatched notification.
type SendResponse struct {
	Status     string   `json:"status"`
	Recipients []string `json:"recipients"`
}

// handleSend validates the request body, authorizes the bearer token
// against the registry, and dispatches the notification. Input
// validation runs before authorization so malformed requests never
// touch the registry.
func (s *Server) handleSend(c echo.Context) error {
	logger := s.log(c)

	var req SendRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "" {
		return angelia.Invalid("Title and message must not be empty")
	}

	token := bearerToken(c)
	recipients, err := s.registry.Authorize(c.Request().Context(), token)
	if err != nil {
		logger.Warn("authorization rejected",
			slog.String("token_prefix", angelia.TokenPrefix(token, 6)),
		)
		return err
	}

	if err := s.mailer.Send(c.Request().Context(), recipients, req.Title, req.Message); err != nil {
		return err
	}

	logger.Info("notification sent",
		slog.String("title", req.Title),
		slog.Any("recipients", recipients),
		slog.String("token_prefix", angelia.TokenPrefix(token, 6)),
	)

	return c.JSON(http.StatusOK, SendResponse{
		Status:     "sent",
		Recipients: recipients,
	})
}

// bearerToken extracts the bearer token from the Authorization header,
// or returns the empty string if the header is missing or malformed.
// An empty token fails authorization the same way an unknown one does.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
