package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/http"
	netmail "net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/dukerupert/angelia"
	"github.com/google/uuid"
)

// logoContentID is the content id the HTML body references.
const logoContentID = "logo"

// Compose assembles an outbound message for the recipient list. A nil or
// empty logo produces a message without an inline image part.
func Compose(from string, to []string, subject string, rendered angelia.RenderedMessage, logo []byte, logoFilename string) *angelia.OutboundMail {
	m := &angelia.OutboundMail{
		From:     from,
		To:       to,
		Subject:  subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	}
	if len(logo) > 0 {
		m.Inline = &angelia.InlineImage{
			ContentID: logoContentID,
			Filename:  logoFilename,
			Data:      logo,
		}
	}
	return m
}

// encodeMessage serializes the message in MIME wire form:
// multipart/related wrapping a multipart/alternative (plain text first,
// HTML second, so clients prefer HTML only when capable) plus the optional
// inline image part.
func encodeMessage(m *angelia.OutboundMail, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	related := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", uuid.NewString(), senderDomain(m.From))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%q\r\n", related.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	if err := writeAlternative(related, m); err != nil {
		return nil, err
	}
	if m.Inline != nil {
		if err := writeInlineImage(related, m.Inline); err != nil {
			return nil, err
		}
	}
	if err := related.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAlternative emits the text+HTML alternative as a nested multipart.
func writeAlternative(related *multipart.Writer, m *angelia.OutboundMail) error {
	var altBuf bytes.Buffer
	alt := multipart.NewWriter(&altBuf)

	if err := writeTextPart(alt, "text/plain; charset=utf-8", m.TextBody); err != nil {
		return err
	}
	if err := writeTextPart(alt, "text/html; charset=utf-8", m.HTMLBody); err != nil {
		return err
	}
	if err := alt.Close(); err != nil {
		return err
	}

	part, err := related.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary())},
	})
	if err != nil {
		return err
	}
	_, err = part.Write(altBuf.Bytes())
	return err
}

func writeTextPart(w *multipart.Writer, contentType, body string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func writeInlineImage(related *multipart.Writer, img *angelia.InlineImage) error {
	part, err := related.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {http.DetectContentType(img.Data)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-ID":                {"<" + img.ContentID + ">"},
		"Content-Disposition":       {fmt.Sprintf("inline; filename=%q", img.Filename)},
	})
	if err != nil {
		return err
	}
	return writeBase64(part, img.Data)
}

// writeBase64 encodes data in 76-column lines per RFC 2045.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := io.WriteString(w, encoded[:n]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

// senderDomain extracts the domain of the sender address for the
// Message-ID header.
func senderDomain(from string) string {
	addrSpec := from
	if addr, err := netmail.ParseAddress(from); err == nil {
		addrSpec = addr.Address
	}
	if i := strings.LastIndex(addrSpec, "@"); i >= 0 && i < len(addrSpec)-1 {
		return addrSpec[i+1:]
	}
	return "localhost"
}
