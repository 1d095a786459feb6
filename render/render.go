package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"time"
	"unicode"

	"github.com/ibreez3/ai-chat/chat"
)

// Renderer projects messages into display form. It holds no conversation state.
type Renderer struct {
	locale Locale
	loc    *time.Location
}

func New(locale Locale, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{locale: locale, loc: loc}
}

func (r *Renderer) Locale() Locale { return r.locale }

// Header is "<label> - <clock>": the user label for user turns, the model's
// display name otherwise.
func (r *Renderer) Header(m chat.Message) string {
	label := m.Model.DisplayName()
	if m.IsUser() {
		label = r.locale.UserLabel
	}
	return label + " - " + r.clock(m)
}

func (r *Renderer) clock(m chat.Message) string {
	t, ok := m.Time()
	if !ok {
		return m.Timestamp
	}
	return t.In(r.loc).Format(r.locale.TimeLayout)
}

// Text is the terminal form: header line, then the content. Control
// characters other than newline and tab are dropped so an answer cannot
// drive the terminal.
func (r *Renderer) Text(m chat.Message) string {
	return StripControl(r.Header(m)) + "\n" + StripControl(m.Content) + "\n"
}

func StripControl(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(c rune) rune {
		if c == '\n' || c == '\t' || !unicode.IsControl(c) {
			return c
		}
		return -1
	}, s)
}

// HTML renders one message. Header and content are escaped before newlines
// become <br>, so message text can never inject markup.
func (r *Renderer) HTML(m chat.Message) string {
	var b strings.Builder
	b.WriteString(`<div class="message `)
	b.WriteString(messageClass(m))
	b.WriteString(`"><div class="message-header">`)
	b.WriteString(html.EscapeString(r.Header(m)))
	b.WriteString(`</div><div class="message-content">`)
	b.WriteString(FormatContent(m.Content))
	b.WriteString(`</div></div>`)
	return b.String()
}

// messageClass comes from the enum, never from the stored type string.
func messageClass(m chat.Message) string {
	if m.IsUser() {
		return "user-message"
	}
	return "ai-message"
}

// FormatContent escapes s and turns each line break into <br>.
func FormatContent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

var transcriptTmpl = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="chat-history">
{{- if .Messages}}
{{- range .Messages}}
{{.}}
{{- end}}
{{- else}}
<div class="welcome-message"><p>{{.Welcome}}</p></div>
{{- end}}
</div>
</body>
</html>
`))

// Transcript renders a standalone HTML page of the whole conversation.
func (r *Renderer) Transcript(title string, msgs []chat.Message) (string, error) {
	parts := make([]template.HTML, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, template.HTML(r.HTML(m)))
	}
	var buf bytes.Buffer
	err := transcriptTmpl.Execute(&buf, struct {
		Lang     string
		Title    string
		Welcome  string
		Messages []template.HTML
	}{r.locale.Tag, title, r.locale.Welcome, parts})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
