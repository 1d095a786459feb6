package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/dispatch"
	"github.com/ibreez3/ai-chat/history"
	"github.com/ibreez3/ai-chat/render"
)

// Session owns everything one conversation needs: its history, the selected
// model and whether a question is still outstanding.
type Session struct {
	mu      sync.Mutex
	id      string
	store   *history.Store
	asker   dispatch.Asker
	locale  render.Locale
	model   chat.Model
	loading bool

	now        func() time.Time
	onMessage  func(chat.Message)
	transcript *TranscriptLog
	log        *slog.Logger
}

type SessionOption func(*Session)

func WithModel(m chat.Model) SessionOption {
	return func(s *Session) { s.model = m }
}

func WithLocale(l render.Locale) SessionOption {
	return func(s *Session) { s.locale = l }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithObserver registers fn to receive every appended message, in order.
func WithObserver(fn func(chat.Message)) SessionOption {
	return func(s *Session) { s.onMessage = fn }
}

func WithTranscript(t *TranscriptLog) SessionOption {
	return func(s *Session) { s.transcript = t }
}

func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

func NewSession(store *history.Store, asker dispatch.Asker, opts ...SessionOption) *Session {
	s := &Session{
		store:  store,
		asker:  asker,
		locale: render.Indonesian,
		model:  chat.ModelGemini,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Load restores the persisted conversation; corrupt snapshots come back empty.
func (s *Session) Load(ctx context.Context) []chat.Message {
	msgs := s.store.Load(ctx)
	s.transcript.Log(fmt.Sprintf("[session start] id=%s restored=%d model=%s", s.id, len(msgs), s.Model()))
	return msgs
}

// Submit sends question with the selected model and returns the ai turn it
// appended. Dispatch failures become an error message in the conversation;
// the only errors returned are ErrEmptyQuestion and ErrBusy.
func (s *Session) Submit(ctx context.Context, question string) (chat.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return chat.Message{}, chat.ErrEmptyQuestion
	}
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return chat.Message{}, chat.ErrBusy
	}
	s.loading = true
	model := s.model
	s.mu.Unlock()
	defer s.setLoading(false)

	s.add(ctx, chat.TypeUser, question, chat.ModelNone)
	s.transcript.Log(fmt.Sprintf("[question] model=%s %s", model, question))

	started := s.now()
	answer, err := s.asker.Ask(ctx, question, model)
	if err != nil {
		s.log.Error("question failed", "session", s.id, "model", string(model), "error", err)
		s.transcript.Log(fmt.Sprintf("[failed] model=%s %s", model, err.Error()))
		return s.add(ctx, chat.TypeAI, s.locale.ErrorText(err), model), nil
	}
	s.log.Info("question answered", "session", s.id, "model", string(model), "duration", s.now().Sub(started))
	s.transcript.Log(fmt.Sprintf("[answer] model=%s chars=%d", model, len(answer)))
	return s.add(ctx, chat.TypeAI, answer, model), nil
}

// SetModel switches the model used for the next question and announces the
// change in the conversation.
func (s *Session) SetModel(ctx context.Context, m chat.Model) (chat.Message, error) {
	if !m.Known() {
		return chat.Message{}, chat.ErrUnknownModel
	}
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
	s.log.Info("model changed", "session", s.id, "model", string(m))
	s.transcript.Log(fmt.Sprintf("[model] %s", m))
	return s.add(ctx, chat.TypeAI, s.locale.ModelChangedText(m.DisplayName()), chat.ModelNone), nil
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.log.Info("chat history cleared", "session", s.id)
	s.transcript.Log("[cleared]")
	return nil
}

func (s *Session) Messages() []chat.Message { return s.store.Messages() }

func (s *Session) Model() chat.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) Locale() render.Locale { return s.locale }

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Session) add(ctx context.Context, typ chat.MessageType, content string, model chat.Model) chat.Message {
	msg := chat.NewMessage(typ, content, model, s.now())
	if err := s.store.Append(ctx, msg); err != nil {
		s.log.Warn("failed to save chat history", "session", s.id, "error", err)
	}
	if s.onMessage != nil {
		s.onMessage(msg)
	}
	return msg
}
