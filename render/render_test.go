package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibreez3/ai-chat/chat"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func msg(typ chat.MessageType, content string, model chat.Model) chat.Message {
	return chat.NewMessage(typ, content, model, time.Date(2026, 10, 18, 7, 5, 0, 0, time.UTC))
}

func parse(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func TestHeader(t *testing.T) {
	r := New(Indonesian, jakarta)
	tests := []struct {
		name     string
		message  chat.Message
		expected string
	}{
		{"user", msg(chat.TypeUser, "hi", chat.ModelNone), "Anda - 14.05"},
		{"ai with model", msg(chat.TypeAI, "4", chat.ModelGPT), "💡 OpenAI GPT - 14.05"},
		{"ai without model", msg(chat.TypeAI, "changed", chat.ModelNone), "🤖 AI Assistant - 14.05"},
		{"bad timestamp", chat.Message{Type: chat.TypeUser, Timestamp: "kemarin"}, "Anda - kemarin"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Header(tc.message); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestHeader_English(t *testing.T) {
	r := New(English, time.UTC)
	if got := r.Header(msg(chat.TypeUser, "hi", chat.ModelNone)); got != "You - 07:05" {
		t.Errorf("Unexpected header %q", got)
	}
}

func TestHTML_Structure(t *testing.T) {
	r := New(Indonesian, jakarta)
	doc := parse(t, r.HTML(msg(chat.TypeAI, "first\nsecond", chat.ModelGemini)))

	div := doc.Find("div.message.ai-message")
	if div.Length() != 1 {
		t.Fatalf("Expected one ai-message div, got %d", div.Length())
	}
	if got := div.Find(".message-header").Text(); got != "🧠 Google Gemini - 14.05" {
		t.Errorf("Unexpected header %q", got)
	}
	content := div.Find(".message-content")
	if content.Find("br").Length() != 1 {
		t.Errorf("Expected one <br>, got %d", content.Find("br").Length())
	}
	if got := content.Text(); got != "firstsecond" {
		t.Errorf("Unexpected content text %q", got)
	}
}

func TestHTML_EscapesContent(t *testing.T) {
	r := New(English, time.UTC)
	out := r.HTML(msg(chat.TypeUser, `<script>alert("x")</script>`+"\n& more", chat.ModelNone))

	if strings.Contains(out, "<script>") {
		t.Fatalf("Content was not escaped: %s", out)
	}
	doc := parse(t, out)
	if doc.Find("script").Length() != 0 {
		t.Error("Expected no script element")
	}
	content := doc.Find(".message-content")
	if got := content.Text(); got != `<script>alert("x")</script>& more` {
		t.Errorf("Unexpected content text %q", got)
	}
	if !strings.Contains(out, "user-message") {
		t.Error("Expected user-message class")
	}
}

func TestHTML_HostileType(t *testing.T) {
	r := New(English, time.UTC)
	m := msg(chat.MessageType(`user"><img src=x onerror=alert(1)><div class="x`), "hi", chat.ModelGPT)
	out := r.HTML(m)

	doc := parse(t, out)
	if doc.Find("img").Length() != 0 || strings.Contains(out, "onerror") {
		t.Fatalf("Type field leaked markup: %s", out)
	}
	if !doc.Find("div.message").HasClass("ai-message") {
		t.Errorf("Expected unknown type to render as ai-message: %s", out)
	}
}

func TestFormatContent(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"plain", "plain"},
		{"a\nb\n", "a<br>b<br>"},
		{"a\r\nb", "a<br>b"},
		{"1 < 2 & 3 > 2", "1 &lt; 2 &amp; 3 &gt; 2"},
	}
	for _, tc := range tests {
		if got := FormatContent(tc.in); got != tc.expected {
			t.Errorf("FormatContent(%q): expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestText(t *testing.T) {
	r := New(Indonesian, jakarta)
	expected := "Anda - 14.05\nline one\nline two\n"
	if got := r.Text(msg(chat.TypeUser, "line one\nline two", chat.ModelNone)); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestText_StripsControlSequences(t *testing.T) {
	r := New(English, time.UTC)
	m := msg(chat.TypeAI, "\x1b[2J\x1b]0;pwned\x07ok\r\n\tdone\x00", chat.ModelGPT)
	expected := "💡 OpenAI GPT - 07:05\n[2J]0;pwnedok\n\tdone\n"
	if got := r.Text(m); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestTranscript(t *testing.T) {
	r := New(Indonesian, jakarta)
	msgs := []chat.Message{
		msg(chat.TypeUser, "2+2?", chat.ModelNone),
		msg(chat.TypeAI, "4", chat.ModelGPT),
	}
	out, err := r.Transcript("AI Chat", msgs)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	doc := parse(t, out)
	if got := doc.Find("#chat-history .message").Length(); got != 2 {
		t.Errorf("Expected 2 messages, got %d", got)
	}
	if doc.Find(".welcome-message").Length() != 0 {
		t.Error("Welcome message should not be shown with history")
	}
	if got := doc.Find("title").Text(); got != "AI Chat" {
		t.Errorf("Unexpected title %q", got)
	}
}

func TestTranscript_Empty(t *testing.T) {
	r := New(English, time.UTC)
	out, err := r.Transcript("AI Chat", nil)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	doc := parse(t, out)
	if got := doc.Find(".welcome-message p").Text(); got != English.Welcome {
		t.Errorf("Expected welcome message, got %q", got)
	}
}

func TestLocaleTexts(t *testing.T) {
	if got := Indonesian.ErrorText(errors.New("HTTP 500: Internal Server Error")); got != "❌ Maaf, terjadi kesalahan: HTTP 500: Internal Server Error" {
		t.Errorf("Unexpected error text %q", got)
	}
	if got := English.ModelChangedText("⚡ Groq"); got != "AI model changed to ⚡ Groq. Go ahead and ask your question!" {
		t.Errorf("Unexpected model text %q", got)
	}
	if LocaleFor("fr").Tag != "id" {
		t.Error("Expected Indonesian fallback")
	}
}
