package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ibreez3/ai-chat/chat"
)

const DefaultKey = "ai-chat-history"

// Store is the append-only conversation. Every Append rewrites the whole
// snapshot under one key.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	key      string
	messages []chat.Message
	log      *slog.Logger
}

func NewStore(storage Storage, key string, log *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{storage: storage, key: key, log: log}
}

// Load replaces the in-memory sequence with the persisted snapshot. Unreadable
// or corrupt snapshots are logged and leave the history empty.
func (s *Store) Load(ctx context.Context) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil

	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn("failed to load chat history", "key", s.key, "error", err)
		return nil
	}
	var msgs []chat.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		s.log.Warn("failed to load chat history", "key", s.key, "error", err)
		return nil
	}
	s.messages = msgs
	return s.snapshot()
}

// Append adds msg and writes the full sequence. The message stays in memory
// even when the write fails.
func (s *Store) Append(ctx context.Context, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	b, err := json.Marshal(s.messages)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Store) snapshot() []chat.Message {
	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
