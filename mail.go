package angelia

import "context"

// Mailer renders and delivers notification emails to a recipient list.
type Mailer interface {
	// Send renders the (title, message) pair and delivers it to the
	// recipients in a single SMTP transaction. The attempt is all or
	// nothing: no retries, no partial delivery tracking.
	Send(ctx context.Context, to []string, title, message string) error

	// Configured reports whether the mailer has the settings it needs
	// to attempt a delivery.
	Configured() bool

	// LogoAvailable reports whether the inline logo resource currently
	// exists. The logo file is re-checked on every call so it can be
	// swapped without a restart.
	LogoAvailable() bool
}

// RenderedMessage holds the two bodies of a notification, derived once
// per send.
type RenderedMessage struct {
	HTMLBody string
	TextBody string
}

// InlineImage is a MIME part embedded in the message and referenced from
// the HTML body by content id rather than attached separately.
type InlineImage struct {
	ContentID string
	Filename  string
	Data      []byte
}

// OutboundMail is a fully composed message, built once and consumed
// exactly once by the delivery client.
type OutboundMail struct {
	From     string
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
	Inline   *InlineImage
}

// SMTPConfig holds the relay connection settings. It is read once at
// startup and passed immutably into the delivery client.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address placed on outgoing mail.
	From string
}

// Complete reports whether every field required for delivery is set.
func (c SMTPConfig) Complete() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.From != ""
}
