// Package mail renders, composes and delivers notification emails over
// SMTP. It owns the MIME structure of outgoing messages and the transport
// security policy of the relay connection.
package mail

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dukerupert/angelia"
	"github.com/dukerupert/angelia/internal/render"
)

// Compile-time interface checks
var (
	_ angelia.Mailer = (*SMTPMailer)(nil)
	_ angelia.Mailer = (*LogMailer)(nil)
)

// SMTPMailer implements angelia.Mailer on top of the delivery client.
// The logo file is re-checked on every send so it can be swapped without
// a restart.
type SMTPMailer struct {
	cfg      angelia.SMTPConfig
	client   *Client
	renderer *render.Renderer
	logoPath string
	logger   *slog.Logger

	// readFile loads the logo bytes. Replaced in tests to simulate a
	// logo that vanishes between the stat and the read.
	readFile func(string) ([]byte, error)
}

// NewSMTPMailer creates a mailer that delivers through the configured relay.
func NewSMTPMailer(cfg angelia.SMTPConfig, renderer *render.Renderer, logoPath string, logger *slog.Logger, opts ...ClientOption) *SMTPMailer {
	return &SMTPMailer{
		cfg:      cfg,
		client:   NewClient(cfg, opts...),
		renderer: renderer,
		logoPath: logoPath,
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// Send renders the notification and delivers it to the recipients in a
// single SMTP transaction.
func (m *SMTPMailer) Send(ctx context.Context, to []string, title, message string) error {
	hasLogo := m.LogoAvailable()

	var logo []byte
	if hasLogo {
		data, err := m.readFile(m.logoPath)
		switch {
		case err != nil:
			// The logo disappeared or became unreadable between the
			// stat and the read. The send proceeds without it, and the
			// HTML must not reference an image part that won't exist.
			m.logger.WarnContext(ctx, "could not read logo, sending without inline image",
				slog.String("path", m.logoPath),
				slog.String("error", err.Error()))
			hasLogo = false
		case len(data) == 0:
			// A zero-byte file yields no image part, so the HTML must
			// not reference one either.
			m.logger.WarnContext(ctx, "logo file is empty, sending without inline image",
				slog.String("path", m.logoPath))
			hasLogo = false
		default:
			logo = data
		}
	}

	rendered := m.renderer.Render(title, message, hasLogo)
	outbound := Compose(m.cfg.From, to, title, rendered, logo, filepath.Base(m.logoPath))

	if err := m.client.Deliver(ctx, outbound); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			m.logger.ErrorContext(ctx, "smtp settings incomplete, delivery refused",
				slog.String("host", m.cfg.Host))
		} else {
			m.logger.ErrorContext(ctx, "delivery failed",
				slog.String("host", m.cfg.Host),
				slog.Int("port", m.cfg.Port),
				slog.Int("recipients", len(to)),
				slog.String("error", err.Error()))
		}
		return angelia.Internal("Failed to send email", err)
	}
	return nil
}

// Configured reports whether every relay setting required for delivery
// is present.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Complete()
}

// LogoAvailable re-checks the logo file on every call.
func (m *SMTPMailer) LogoAvailable() bool {
	info, err := os.Stat(m.logoPath)
	return err == nil && !info.IsDir()
}

// LogMailer logs notifications instead of sending them. Used in local
// development where no relay is reachable.
type LogMailer struct {
	logger   *slog.Logger
	logoPath string
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *slog.Logger, logoPath string) *LogMailer {
	return &LogMailer{logger: logger, logoPath: logoPath}
}

func (m *LogMailer) Send(ctx context.Context, to []string, title, message string) error {
	m.logger.InfoContext(ctx, "MOCK MAIL: notification",
		slog.Any("to", to),
		slog.String("title", title),
		slog.Int("message_bytes", len(message)))
	return nil
}

func (m *LogMailer) Configured() bool {
	return true
}

func (m *LogMailer) LogoAvailable() bool {
	info, err := os.Stat(m.logoPath)
	return err == nil && !info.IsDir()
}
