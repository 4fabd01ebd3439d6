package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/angelia"
	"github.com/dukerupert/angelia/internal/validation"
	"github.com/dukerupert/angelia/mock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(registry *mock.TokenRegistry, mailer *mock.Mailer) *Server {
	return NewServer(Config{
		Addr:      "127.0.0.1:0",
		Locale:    "en",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Validator: validation.NewValidator(),
		Registry:  registry,
		Mailer:    mailer,
	})
}

// authorizeOnly returns an AuthorizeFn that accepts exactly one token.
func authorizeOnly(want string, recipients []string) func(context.Context, string) ([]string, error) {
	return func(_ context.Context, token string) ([]string, error) {
		if token == want {
			return recipients, nil
		}
		return nil, angelia.Forbidden("Invalid token or unauthorized access")
	}
}

func doRequest(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSend_Success(t *testing.T) {
	registry := &mock.TokenRegistry{
		AuthorizeFn: authorizeOnly("abc123", []string{"a@x.com", "b@x.com"}),
	}
	mailer := &mock.Mailer{}
	s := newTestServer(registry, mailer)

	rec := doRequest(s, http.MethodPost, "/send", "abc123",
		`{"title":"Hi","message":"line1\nline2"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.Equal(t, "sent", body["status"])
	assert.Equal(t, []any{"a@x.com", "b@x.com"}, body["recipients"])

	require.Len(t, mailer.SentMails, 1)
	sent := mailer.LastMail()
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, sent.To)
	assert.Equal(t, "Hi", sent.Title)
	assert.Equal(t, "line1\nline2", sent.Message)
	assert.Equal(t, []string{"abc123"}, registry.AuthorizeCalls)
}

func TestSend_WrongToken(t *testing.T) {
	registry := &mock.TokenRegistry{
		AuthorizeFn: authorizeOnly("abc123", []string{"a@x.com"}),
	}
	mailer := &mock.Mailer{}
	s := newTestServer(registry, mailer)

	rec := doRequest(s, http.MethodPost, "/send", "wrong-token",
		`{"title":"Hi","message":"line1\nline2"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, angelia.EFORBIDDEN, body["error"])
	assert.Equal(t, "Invalid token or unauthorized access", body["detail"])

	// No mail is composed or sent for an unauthorized request.
	assert.Empty(t, mailer.SentMails)
}

func TestSend_MissingAuthHeader(t *testing.T) {
	registry := &mock.TokenRegistry{}
	mailer := &mock.Mailer{}
	s := newTestServer(registry, mailer)

	rec := doRequest(s, http.MethodPost, "/send", "",
		`{"title":"Hi","message":"body"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "Invalid token or unauthorized access", body["detail"])
	assert.Empty(t, mailer.SentMails)
}

func TestSend_EmptyTitle(t *testing.T) {
	registry := &mock.TokenRegistry{
		AuthorizeFn: authorizeOnly("abc123", []string{"a@x.com"}),
	}
	mailer := &mock.Mailer{}
	s := newTestServer(registry, mailer)

	rec := doRequest(s, http.MethodPost, "/send", "abc123",
		`{"title":"","message":"body"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, angelia.EINVALID, body["error"])

	// Validation rejects the request before any authorization check.
	assert.Empty(t, registry.AuthorizeCalls)
	assert.Empty(t, mailer.SentMails)
}

func TestSend_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing message", `{"title":"Hi"}`},
		{"missing title", `{"message":"body"}`},
		{"whitespace only", `{"title":"  ","message":"body"}`},
		{"malformed json", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &mock.TokenRegistry{}
			s := newTestServer(registry, &mock.Mailer{})

			rec := doRequest(s, http.MethodPost, "/send", "abc123", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, registry.AuthorizeCalls)
		})
	}
}

func TestSend_DeliveryFailure(t *testing.T) {
	registry := &mock.TokenRegistry{
		AuthorizeFn: authorizeOnly("abc123", []string{"a@x.com"}),
	}
	mailer := &mock.Mailer{
		SendFn: func(context.Context, []string, string, string) error {
			return angelia.Internal("Failed to send email",
				errors.New("tls: handshake failure talking to smtp.example.com:587"))
		},
	}
	s := newTestServer(registry, mailer)

	rec := doRequest(s, http.MethodPost, "/send", "abc123",
		`{"title":"Hi","message":"body"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, angelia.EINTERNAL, body["error"])
	assert.Equal(t, "Failed to send email", body["detail"])

	// Transport-level detail stays out of the response.
	assert.NotContains(t, rec.Body.String(), "handshake")
	assert.NotContains(t, rec.Body.String(), "smtp.example.com")
}

func TestIndex(t *testing.T) {
	s := newTestServer(&mock.TokenRegistry{}, &mock.Mailer{})

	rec := doRequest(s, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, ServiceVersion, body["version"])
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "en", body["locale"])
	assert.Contains(t, body["endpoints"], "send")
}

func TestHealthCheck(t *testing.T) {
	registry := &mock.TokenRegistry{
		CountFn: func(context.Context) int { return 2 },
	}
	mailer := &mock.Mailer{
		ConfiguredFn:    func() bool { return true },
		LogoAvailableFn: func() bool { return true },
	}
	s := newTestServer(registry, mailer)

	rec := doRequest(s, http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["smtp_configured"])
	assert.Equal(t, float64(2), body["tokens_configured"])
	assert.Equal(t, true, body["logo_available"])
	assert.NotEmpty(t, body["timestamp"])
}

// newLoggedServer builds a server whose log output is captured in buf.
func newLoggedServer(buf *bytes.Buffer, registry *mock.TokenRegistry, mailer *mock.Mailer) *Server {
	return NewServer(Config{
		Addr:      "127.0.0.1:0",
		Locale:    "en",
		Logger:    slog.New(slog.NewTextHandler(buf, nil)),
		Validator: validation.NewValidator(),
		Registry:  registry,
		Mailer:    mailer,
	})
}

func TestRequestLog_ClientErrorIsWarning(t *testing.T) {
	var buf bytes.Buffer
	registry := &mock.TokenRegistry{}
	s := newLoggedServer(&buf, registry, &mock.Mailer{})

	rec := doRequest(s, http.MethodPost, "/send", "abc123",
		`{"title":"","message":"body"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	logs := buf.String()
	assert.NotContains(t, logs, "level=ERROR")
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "status=400")
	// The validation detail belongs in the response, not the log.
	assert.NotContains(t, logs, "is required")
}

func TestRequestLog_ForbiddenIsWarning(t *testing.T) {
	var buf bytes.Buffer
	registry := &mock.TokenRegistry{
		AuthorizeFn: authorizeOnly("abc123", []string{"a@x.com"}),
	}
	s := newLoggedServer(&buf, registry, &mock.Mailer{})

	rec := doRequest(s, http.MethodPost, "/send", "wrong-token",
		`{"title":"Hi","message":"body"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	logs := buf.String()
	assert.NotContains(t, logs, "level=ERROR")
	assert.Contains(t, logs, "status=403")
	// Only the truncated prefix of the rejected token may be logged.
	assert.NotContains(t, logs, "wrong-token")
	assert.Contains(t, logs, "wrong-...")
}

func TestRequestLog_DeliveryFailureIsError(t *testing.T) {
	var buf bytes.Buffer
	registry := &mock.TokenRegistry{
		AuthorizeFn: authorizeOnly("abc123", []string{"a@x.com"}),
	}
	mailer := &mock.Mailer{
		SendFn: func(context.Context, []string, string, string) error {
			return angelia.Internal("Failed to send email", errors.New("connection reset"))
		},
	}
	s := newLoggedServer(&buf, registry, mailer)

	rec := doRequest(s, http.MethodPost, "/send", "abc123",
		`{"title":"Hi","message":"body"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	logs := buf.String()
	assert.Contains(t, logs, "level=ERROR")
	assert.Contains(t, logs, "status=500")

	// The internal-error line carries the request id set up by the
	// middleware.
	found := false
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, `msg="internal error"`) {
			assert.Contains(t, line, "request_id=")
			found = true
		}
	}
	assert.True(t, found, "expected an internal error log line, got:\n%s", logs)
}

func TestBearerToken(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well formed", "Bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"no scheme", "abc123", ""},
		{"trailing space", "Bearer abc123 ", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/send", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, bearerToken(c))
		})
	}
}
