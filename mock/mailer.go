package mock

import (
	"context"

	"github.com/dukerupert/angelia"
)

// Compile-time interface check
var _ angelia.Mailer = (*Mailer)(nil)

// Mailer is a mock implementation of angelia.Mailer.
type Mailer struct {
	SendFn          func(ctx context.Context, to []string, title, message string) error
	ConfiguredFn    func() bool
	LogoAvailableFn func() bool

	// Tracking sent mail for assertions
	SentMails []SentMail
}

// SentMail records details of a sent notification for testing assertions.
type SentMail struct {
	To      []string
	Title   string
	Message string
}

func (m *Mailer) Send(ctx context.Context, to []string, title, message string) error {
	m.SentMails = append(m.SentMails, SentMail{
		To:      to,
		Title:   title,
		Message: message,
	})
	if m.SendFn != nil {
		return m.SendFn(ctx, to, title, message)
	}
	return nil
}

func (m *Mailer) Configured() bool {
	if m.ConfiguredFn != nil {
		return m.ConfiguredFn()
	}
	return true
}

func (m *Mailer) LogoAvailable() bool {
	if m.LogoAvailableFn != nil {
		return m.LogoAvailableFn()
	}
	return false
}

// Reset clears all sent mail.
func (m *Mailer) Reset() {
	m.SentMails = nil
}

// LastMail returns the last sent mail, or nil if none.
func (m *Mailer) LastMail() *SentMail {
	if len(m.SentMails) == 0 {
		return nil
	}
	return &m.SentMails[len(m.SentMails)-1]
}
