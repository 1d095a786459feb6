package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ibreez3/ai-chat/chat"
)

// Asker turns a question into an answer from the selected model.
type Asker interface {
	Ask(ctx context.Context, question string, model chat.Model) (string, error)
}

// Dispatcher posts questions to {baseURL}/ask and retries every failure the
// same way, waiting retryDelay*attempt between attempts.
type Dispatcher struct {
	baseURL        string
	maxRetries     int
	retryDelay     time.Duration
	attemptTimeout time.Duration
	httpClient     *http.Client
	sleep          func(ctx context.Context, d time.Duration) error
	log            *slog.Logger
}

type Option func(*Dispatcher)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.httpClient = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithSleep replaces the backoff wait, mainly so tests can record it.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Dispatcher) { d.sleep = fn }
}

// WithAttemptTimeout bounds each HTTP attempt. Zero leaves attempts unbounded.
func WithAttemptTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.attemptTimeout = t }
}

func New(baseURL string, maxRetries int, retryDelay time.Duration, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		httpClient: http.DefaultClient,
		sleep:      sleepContext,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

type askResponse struct {
	Answer *string `json:"answer"`
	Error  string  `json:"error"`
}

func (d *Dispatcher) Ask(ctx context.Context, question string, model chat.Model) (string, error) {
	body, err := json.Marshal(askRequest{Question: question, Model: string(model)})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	attempts := d.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := d.post(ctx, body)
		if err == nil {
			if res.Answer == nil {
				return "", ErrNoAnswer
			}
			return *res.Answer, nil
		}
		lastErr = err
		d.log.Warn("ask attempt failed", "attempt", attempt, "max_attempts", attempts, "model", string(model), "error", err)
		if attempt < attempts {
			if err := d.sleep(ctx, d.retryDelay*time.Duration(attempt)); err != nil {
				return "", err
			}
		}
	}
	return "", lastErr
}

func (d *Dispatcher) post(ctx context.Context, body []byte) (*askResponse, error) {
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.attemptTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, newStatusError(resp)
	}

	var res askResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if res.Error != "" {
		return nil, &AnswerError{Message: res.Error}
	}
	return &res, nil
}

func newStatusError(resp *http.Response) *StatusError {
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}
	return &StatusError{Code: resp.StatusCode, Status: status}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
