package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/smtp"
	"testing"

	"github.com/dukerupert/angelia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records the sequence of SMTP operations and can be told to
// fail at a specific step.
type fakeSession struct {
	ops    *[]string
	failOn string
	data   bytes.Buffer
}

func (s *fakeSession) op(name string) error {
	*s.ops = append(*s.ops, name)
	if s.failOn == name {
		return errors.New(name + " refused by server")
	}
	return nil
}

func (s *fakeSession) StartTLS(*tls.Config) error { return s.op("starttls") }
func (s *fakeSession) Auth(smtp.Auth) error       { return s.op("auth") }
func (s *fakeSession) Mail(string) error          { return s.op("mail") }
func (s *fakeSession) Rcpt(string) error          { return s.op("rcpt") }
func (s *fakeSession) Quit() error                { return s.op("quit") }
func (s *fakeSession) Close() error               { return s.op("close") }

func (s *fakeSession) Data() (io.WriteCloser, error) {
	if err := s.op("data"); err != nil {
		return nil, err
	}
	return &fakeDataWriter{sess: s}, nil
}

type fakeDataWriter struct {
	sess *fakeSession
}

func (w *fakeDataWriter) Write(p []byte) (int, error) {
	if err := w.sess.op("write"); err != nil {
		return 0, err
	}
	return w.sess.data.Write(p)
}

func (w *fakeDataWriter) Close() error { return w.sess.op("write-close") }

type fakeTransport struct {
	ops     []string
	sess    *fakeSession
	dialErr error
}

func newFakeTransport(failOn string) *fakeTransport {
	t := &fakeTransport{}
	t.sess = &fakeSession{ops: &t.ops, failOn: failOn}
	return t
}

func (t *fakeTransport) Dial(ctx context.Context, host, addr string) (session, error) {
	t.ops = append(t.ops, "dial")
	if t.dialErr != nil {
		return nil, t.dialErr
	}
	return t.sess, nil
}

func (t *fakeTransport) DialTLS(ctx context.Context, host, addr string, cfg *tls.Config) (session, error) {
	t.ops = append(t.ops, "dial-tls")
	if t.dialErr != nil {
		return nil, t.dialErr
	}
	return t.sess, nil
}

func testSMTPConfig(port int) angelia.SMTPConfig {
	return angelia.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     port,
		Username: "user",
		Password: "secret",
		From:     "relay@example.com",
	}
}

func testOutbound() *angelia.OutboundMail {
	return Compose("relay@example.com", []string{"a@x.com", "b@x.com"}, "Hi", testRendered(), nil, "")
}

func indexOf(ops []string, name string) int {
	for i, op := range ops {
		if op == name {
			return i
		}
	}
	return -1
}

func TestDeliver_ImplicitTLSOnPort465(t *testing.T) {
	ft := newFakeTransport("")
	c := NewClient(testSMTPConfig(465), withTransport(ft))

	err := c.Deliver(context.Background(), testOutbound())
	require.NoError(t, err)

	assert.Equal(t, "dial-tls", ft.ops[0])
	assert.NotContains(t, ft.ops, "starttls")
}

func TestDeliver_ExplicitUpgradeOnOtherPorts(t *testing.T) {
	for _, port := range []int{25, 587, 2525} {
		ft := newFakeTransport("")
		c := NewClient(testSMTPConfig(port), withTransport(ft))

		err := c.Deliver(context.Background(), testOutbound())
		require.NoError(t, err)

		assert.Equal(t, "dial", ft.ops[0])

		starttls := indexOf(ft.ops, "starttls")
		auth := indexOf(ft.ops, "auth")
		require.GreaterOrEqual(t, starttls, 0)
		require.GreaterOrEqual(t, auth, 0)

		// The channel is secured before credentials go over the wire.
		assert.Less(t, starttls, auth)
	}
}

func TestDeliver_MissingCredentials(t *testing.T) {
	cfg := testSMTPConfig(587)
	cfg.Username = ""

	ft := newFakeTransport("")
	c := NewClient(cfg, withTransport(ft))

	err := c.Deliver(context.Background(), testOutbound())
	require.ErrorIs(t, err, ErrNotConfigured)

	// No network activity of any kind.
	assert.Empty(t, ft.ops)
}

func TestDeliver_OneTransactionAddressesAllRecipients(t *testing.T) {
	ft := newFakeTransport("")
	c := NewClient(testSMTPConfig(587), withTransport(ft))

	require.NoError(t, c.Deliver(context.Background(), testOutbound()))

	rcpts, mails := 0, 0
	for _, op := range ft.ops {
		switch op {
		case "rcpt":
			rcpts++
		case "mail":
			mails++
		}
	}
	assert.Equal(t, 2, rcpts)
	assert.Equal(t, 1, mails)
}

func TestDeliver_SuccessSequence(t *testing.T) {
	ft := newFakeTransport("")
	c := NewClient(testSMTPConfig(587), withTransport(ft))

	require.NoError(t, c.Deliver(context.Background(), testOutbound()))

	assert.Equal(t, []string{
		"dial", "starttls", "auth", "mail", "rcpt", "rcpt",
		"data", "write", "write-close", "quit", "close",
	}, ft.ops)
	assert.Contains(t, ft.sess.data.String(), "Subject: Hi")
}

func TestDeliver_AuthFailureClosesSession(t *testing.T) {
	ft := newFakeTransport("auth")
	c := NewClient(testSMTPConfig(587), withTransport(ft))

	err := c.Deliver(context.Background(), testOutbound())
	require.Error(t, err)

	assert.NotContains(t, ft.ops, "mail")
	assert.Equal(t, "close", ft.ops[len(ft.ops)-1])
}

func TestDeliver_MidTransmissionFailure(t *testing.T) {
	ft := newFakeTransport("write")
	c := NewClient(testSMTPConfig(587), withTransport(ft))

	err := c.Deliver(context.Background(), testOutbound())
	require.Error(t, err)

	// No QUIT after a failed transfer, but the session is still closed.
	assert.NotContains(t, ft.ops, "quit")
	assert.Equal(t, "close", ft.ops[len(ft.ops)-1])
}

func TestDeliver_DialFailure(t *testing.T) {
	ft := newFakeTransport("")
	ft.dialErr = errors.New("connection refused")
	c := NewClient(testSMTPConfig(587), withTransport(ft))

	err := c.Deliver(context.Background(), testOutbound())
	require.Error(t, err)
	assert.Equal(t, []string{"dial"}, ft.ops)
}
