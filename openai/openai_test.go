package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/config"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1760771100,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "4"}}]
}`

func TestClient_ChatWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Unexpected auth header %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		b, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(b, &body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		if body.Model != "gpt-4o-mini" || len(body.Messages) != 2 || body.Messages[1].Content != "2+2?" {
			t.Errorf("Unexpected request %s", b)
		}
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"boom"}}`)
			return
		}
		io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL+"/v1")
	answer, err := c.ChatWithRetry(context.Background(), "gpt-4o-mini", "be brief", "2+2?", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != "4" {
		t.Errorf("Expected 4, got %q", answer)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestClient_ChatWithRetry_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error":{"message":"down"}}`)
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL+"/v1")
	if _, err := c.ChatWithRetry(context.Background(), "gpt-4o-mini", "", "hi", 3, time.Millisecond); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls.Store(0)
	_, err := c.ChatWithRetry(ctx, "gpt-4o-mini", "", "hi", 3, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls.Load() > 1 {
		t.Errorf("Canceled context must not be retried, got %d calls", calls.Load())
	}
}

type fakeChat struct {
	model, system, user string
	answer              string
	err                 error
}

func (f *fakeChat) ChatWithRetry(ctx context.Context, model, system, user string, retries int, backoff time.Duration) (string, error) {
	f.model, f.system, f.user = model, system, user
	return f.answer, f.err
}

func TestAnswerer_Routes(t *testing.T) {
	a := &Answerer{providers: map[chat.Model]provider{}, retries: 1}
	gpt := &fakeChat{answer: "4"}
	groq := &fakeChat{answer: "four"}
	a.Register(chat.ModelGPT, gpt, "gpt-4o-mini", "")
	a.Register(chat.ModelGroq, groq, "llama-3.1-8b-instant", "be terse")

	got, err := a.Answer(context.Background(), chat.ModelGroq, "2+2?")
	if err != nil || got != "four" {
		t.Fatalf("Expected four, got %q / %v", got, err)
	}
	if groq.model != "llama-3.1-8b-instant" || groq.system != "be terse" || groq.user != "2+2?" {
		t.Errorf("Unexpected upstream call %+v", groq)
	}
	if _, _ = a.Answer(context.Background(), chat.ModelGPT, "q"); gpt.system != defaultSystem {
		t.Errorf("Expected default system prompt, got %q", gpt.system)
	}
}

func TestAnswerer_Errors(t *testing.T) {
	a := &Answerer{providers: map[chat.Model]provider{}}
	a.Register(chat.ModelClaude, &fakeChat{err: errors.New("overloaded")}, "claude", "")

	if _, err := a.Answer(context.Background(), chat.Model("llama"), "q"); !errors.Is(err, chat.ErrUnknownModel) {
		t.Errorf("Expected ErrUnknownModel, got %v", err)
	}
	if _, err := a.Answer(context.Background(), chat.ModelGemini, "q"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
	_, err := a.Answer(context.Background(), chat.ModelClaude, "q")
	if err == nil || !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("Expected provider error, got %v", err)
	}
}

func TestNewAnswerer_SkipsProvidersWithoutKey(t *testing.T) {
	var cfg config.Config
	cfg.Providers = map[string]config.Provider{
		"gpt":     {BaseURL: "http://localhost/v1", Model: "gpt-4o-mini", APIKey: "sk"},
		"gemini":  {BaseURL: "http://localhost/v1", Model: "gemini-2.0-flash"},
		"mistral": {BaseURL: "http://localhost/v1", Model: "mistral", APIKey: "sk"},
	}
	a := NewAnswerer(cfg)
	if !a.Available(chat.ModelGPT) {
		t.Error("Expected gpt available")
	}
	if a.Available(chat.ModelGemini) {
		t.Error("Expected gemini unavailable without a key")
	}
	if a.Available(chat.Model("mistral")) {
		t.Error("Expected models outside the enum to be ignored")
	}
}
