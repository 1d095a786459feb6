package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/config"
)

// ErrProviderUnavailable means the model is known but has no API key configured.
var ErrProviderUnavailable = errors.New("provider not configured")

const defaultSystem = "You are a helpful assistant. Answer the user's question clearly and concisely."

type ChatClient interface {
	ChatWithRetry(ctx context.Context, model string, system string, user string, retries int, backoff time.Duration) (string, error)
}

type provider struct {
	client ChatClient
	model  string
	system string
}

// Answerer routes each chat model to its OpenAI-compatible provider.
type Answerer struct {
	providers map[chat.Model]provider
	timeout   time.Duration
	retries   int
	backoff   time.Duration
}

// NewAnswerer builds a client for every provider that has an API key.
func NewAnswerer(cfg config.Config) *Answerer {
	a := &Answerer{
		providers: map[chat.Model]provider{},
		timeout:   time.Duration(cfg.Upstream.RequestTimeoutSec) * time.Second,
		retries:   cfg.Upstream.MaxRetries,
		backoff:   time.Duration(cfg.Upstream.RetryBackoffMs) * time.Millisecond,
	}
	for name, p := range cfg.Providers {
		m := chat.Model(name)
		if !m.Known() || p.APIKey == "" {
			continue
		}
		a.Register(m, NewClient(p.APIKey, p.BaseURL), p.Model, p.System)
	}
	return a
}

func (a *Answerer) Register(m chat.Model, client ChatClient, upstreamModel, system string) {
	if system == "" {
		system = defaultSystem
	}
	a.providers[m] = provider{client: client, model: upstreamModel, system: system}
}

func (a *Answerer) Available(m chat.Model) bool {
	_, ok := a.providers[m]
	return ok
}

func (a *Answerer) Answer(ctx context.Context, m chat.Model, question string) (string, error) {
	if !m.Known() {
		return "", chat.ErrUnknownModel
	}
	p, ok := a.providers[m]
	if !ok {
		return "", fmt.Errorf("%s: %w", m, ErrProviderUnavailable)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	answer, err := p.client.ChatWithRetry(ctx, p.model, p.system, question, a.retries, a.backoff)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", m, err)
	}
	return answer, nil
}
