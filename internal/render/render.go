// Package render produces the HTML and plain-text bodies of a notification
// email. Rendering is pure apart from the embedded timestamp; the clock is
// injectable for tests.
package render

import (
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/angelia"
)

const timestampLayout = "2006-01-02 15:04:05"

// htmlTemplate is the notification document. Title and message arrive
// pre-escaped through the data struct, so user text can never inject markup.
var htmlTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f5f7fa;">
    <div style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 20px rgba(0,0,0,0.08); overflow: hidden;">
        <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 40px 30px; text-align: center;">
{{- if .HasLogo}}
            <div style="text-align: center; margin-bottom: 30px;">
                <img src="cid:logo" alt="{{.LogoAlt}}" style="max-width: 200px; height: auto; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
            </div>
{{- end}}
            <h1 style="color: #ffffff; margin: 0; font-size: 28px; font-weight: 600; text-shadow: 0 2px 4px rgba(0,0,0,0.2);">
                {{.Heading}}
            </h1>
        </div>
        <div style="padding: 40px 30px;">
            <div style="background-color: #f8fafc; border-left: 4px solid #667eea; padding: 20px 25px; border-radius: 6px; margin-bottom: 30px;">
                <h2 style="color: #2d3748; margin: 0 0 15px 0; font-size: 24px; font-weight: 700;">
                    {{.Title}}
                </h2>
            </div>
            <div style="background-color: #ffffff; border: 1px solid #e2e8f0; border-radius: 8px; padding: 25px; line-height: 1.6;">
                <p style="color: #4a5568; margin: 0; font-size: 16px;">
                    {{.Message}}
                </p>
            </div>
        </div>
        <div style="background-color: #f7fafc; padding: 20px 30px; text-align: center; border-top: 1px solid #e2e8f0;">
            <p style="color: #718096; margin: 0; font-size: 14px;">
                {{.Tagline}} &bull; {{.Timestamp}}
            </p>
        </div>
    </div>
</body>
</html>
`))

type templateData struct {
	Lang      string
	Title     string
	Heading   string
	LogoAlt   string
	Tagline   string
	Timestamp string
	HasLogo   bool

	// Message is escaped before newline-to-<br> conversion, so the
	// template.HTML marker is safe here.
	Message template.HTML
}

// Renderer builds both bodies of a notification for a fixed locale.
type Renderer struct {
	locale Locale
	now    func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces the renderer's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer creates a renderer for the given locale.
func NewRenderer(locale Locale, opts ...Option) *Renderer {
	r := &Renderer{
		locale: locale,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Locale returns the renderer's locale code.
func (r *Renderer) Locale() Locale {
	return r.locale
}

// Render produces the HTML document and its plain-text equivalent for the
// given title and message. hasLogo controls whether the HTML references the
// cid:logo inline image; when false the logo section is omitted entirely.
func (r *Renderer) Render(title, message string, hasLogo bool) angelia.RenderedMessage {
	now := r.now()
	return angelia.RenderedMessage{
		HTMLBody: r.renderHTML(title, message, hasLogo, now),
		TextBody: r.renderText(title, message, now),
	}
}

func (r *Renderer) renderHTML(title, message string, hasLogo bool, now time.Time) string {
	data := templateData{
		Lang:      string(r.locale),
		Title:     title,
		Heading:   lookup(r.locale, keyHeading),
		LogoAlt:   lookup(r.locale, keyLogoAlt),
		Tagline:   lookup(r.locale, keyTagline),
		Timestamp: now.Format(timestampLayout),
		HasLogo:   hasLogo,
		Message:   formatMessageHTML(message),
	}

	var sb strings.Builder
	// The template is parsed at init and the data type is fixed, so
	// execution cannot fail.
	if err := htmlTemplate.Execute(&sb, data); err != nil {
		panic(err)
	}
	return sb.String()
}

// formatMessageHTML escapes the message body and converts newlines to
// line-break markup.
func formatMessageHTML(message string) template.HTML {
	escaped := template.HTMLEscapeString(strings.TrimSpace(message))
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML(escaped)
}

func (r *Renderer) renderText(title, message string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", utf8.RuneCountInString(title)))
	sb.WriteString("\n\n")
	sb.WriteString(message)
	sb.WriteString("\n\n---\n")
	sb.WriteString(lookup(r.locale, keyTagline))
	sb.WriteString("\n")
	sb.WriteString(now.Format(timestampLayout))
	return strings.TrimSpace(sb.String())
}
