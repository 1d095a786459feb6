package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/history"
	"github.com/ibreez3/ai-chat/render"
	"github.com/ibreez3/ai-chat/service"
)

type echoAsker struct{ questions []string }

func (a *echoAsker) Ask(ctx context.Context, question string, model chat.Model) (string, error) {
	a.questions = append(a.questions, question)
	return "echo: " + question, nil
}

func newTestREPL(t *testing.T) (*repl, *echoAsker, *bytes.Buffer) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer := render.New(render.LocaleFor("en"), time.UTC)
	asker := &echoAsker{}
	store := history.NewStore(history.NewMemoryStorage(), history.DefaultKey, log)
	sess := service.NewSession(store, asker,
		service.WithLocale(renderer.Locale()),
		service.WithSessionLogger(log),
	)
	var out bytes.Buffer
	return &repl{sess: sess, renderer: renderer, out: &out}, asker, &out
}

func TestREPL_Conversation(t *testing.T) {
	r, asker, out := newTestREPL(t)
	input := strings.Join([]string{
		"2+2?",
		"",
		"/model gpt",
		"/model llama",
		"/models",
		"what now",
		"/history",
		"/quit",
		"never sent",
	}, "\n")

	if err := r.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(asker.questions) != 2 || asker.questions[1] != "what now" {
		t.Fatalf("Unexpected questions: %v", asker.questions)
	}
	if r.sess.Model() != chat.ModelGPT {
		t.Errorf("Expected gpt selected, got %s", r.sess.Model())
	}
	// user, ai, model notice, user, ai
	if n := len(r.sess.Messages()); n != 5 {
		t.Errorf("Expected 5 messages, got %d", n)
	}
	text := out.String()
	for _, want := range []string{"llama: unknown model", "* gpt", "echo: what now", "[💡 OpenAI GPT] > "} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestREPL_ClearAndExport(t *testing.T) {
	r, _, out := newTestREPL(t)
	path := filepath.Join(t.TempDir(), "out", "chat.html")
	input := "hello <b>\n/export " + path + "\n/clear\n/export\n/bogus\n"

	if err := r.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected export file: %v", err)
	}
	if !strings.Contains(string(b), "hello &lt;b&gt;") {
		t.Errorf("Expected escaped content in export, got:\n%s", b)
	}
	if len(r.sess.Messages()) != 0 {
		t.Errorf("Expected history cleared")
	}
	for _, want := range []string{"usage: /export", "unknown command /bogus"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestREPL_StopsOnCancel(t *testing.T) {
	r, _, _ := newTestREPL(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()
	if err := r.run(ctx, pr); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
