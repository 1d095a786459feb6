package openai

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrEmptyCompletion is returned when the provider replies without choices.
var ErrEmptyCompletion = errors.New("completion has no choices")

type Client struct {
	cli openai.Client
}

func NewClient(apiKey string, baseURL string, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		// retries are driven by ChatWithRetry so backoff stays configurable
		option.WithMaxRetries(0),
	}
	return &Client{
		cli: openai.NewClient(append(base, opts...)...),
	}
}

// Chat sends one user turn, preceded by system when it is not empty.
func (c *Client) Chat(ctx context.Context, model string, system string, user string) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(user))
	res, err := c.cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return res.Choices[0].Message.Content, nil
}

// ChatWithRetry calls Chat up to retries times, waiting backoff*attempt
// between tries. Cancellation and deadline errors end the loop at once.
func (c *Client) ChatWithRetry(ctx context.Context, model string, system string, user string, retries int, backoff time.Duration) (string, error) {
	var lastErr error
	attempts := max(retries, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := c.Chat(ctx, model, system, user)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
		if attempt == attempts || backoff <= 0 {
			continue
		}
		t := time.NewTimer(backoff * time.Duration(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
