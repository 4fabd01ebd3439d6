package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/dukerupert/angelia"
)

// implicitTLSPort is the port on which SMTP relays conventionally expect
// encryption from the first byte. Every other port gets a plaintext
// connection upgraded via STARTTLS before authentication.
const implicitTLSPort = 465

// ErrNotConfigured is returned when the relay credentials are incomplete.
// Delivery fails immediately without a network attempt.
var ErrNotConfigured = errors.New("smtp credentials not configured")

// session is the subset of *smtp.Client the delivery client drives.
type session interface {
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// transport opens SMTP sessions. The production implementation dials TCP;
// tests substitute a recording fake.
type transport interface {
	// Dial opens a plaintext connection; the caller upgrades it with
	// STARTTLS before sending credentials.
	Dial(ctx context.Context, host, addr string) (session, error)

	// DialTLS opens a connection encrypted from the first byte.
	DialTLS(ctx context.Context, host, addr string, cfg *tls.Config) (session, error)
}

// netTransport dials real TCP connections with a bounded dial timeout.
type netTransport struct {
	timeout time.Duration
}

func (t netTransport) Dial(ctx context.Context, host, addr string) (session, error) {
	conn, err := (&net.Dialer{Timeout: t.timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(conn, host)
}

func (t netTransport) DialTLS(ctx context.Context, host, addr string, cfg *tls.Config) (session, error) {
	conn, err := (&net.Dialer{Timeout: t.timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(tls.Client(conn, cfg), host)
}

// Client performs single-shot SMTP deliveries. Each call owns its own
// session; nothing is pooled or reused across requests.
type Client struct {
	cfg       angelia.SMTPConfig
	transport transport
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDialTimeout bounds the TCP connect of each delivery.
func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.transport = netTransport{timeout: timeout}
	}
}

// withTransport replaces the network transport. Test hook.
func withTransport(t transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// NewClient creates a delivery client for the given relay settings.
func NewClient(cfg angelia.SMTPConfig, opts ...ClientOption) *Client {
	c := &Client{
		cfg:       cfg,
		transport: netTransport{timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver transmits the message to all recipients in one SMTP transaction.
// The attempt is all or nothing: any failure during connect, handshake,
// authentication or transmission is terminal, and the session is closed on
// every exit path.
func (c *Client) Deliver(ctx context.Context, m *angelia.OutboundMail) error {
	if !c.cfg.Complete() {
		return ErrNotConfigured
	}

	msg, err := encodeMessage(m, time.Now())
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	var sess session
	if c.cfg.Port == implicitTLSPort {
		sess, err = c.transport.DialTLS(ctx, c.cfg.Host, addr, c.tlsConfig())
	} else {
		sess, err = c.transport.Dial(ctx, c.cfg.Host, addr)
	}
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer sess.Close()

	// Plaintext connections are upgraded before credentials go over the
	// wire. Implicit TLS connections are already encrypted.
	if c.cfg.Port != implicitTLSPort {
		if err := sess.StartTLS(c.tlsConfig()); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	if err := sess.Auth(auth); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	if err := sess.Mail(m.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range m.To {
		if err := sess.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := sess.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("transmitting message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing transmission: %w", err)
	}

	if err := sess.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}
	return nil
}

func (c *Client) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: c.cfg.Host}
}
