package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/config"
	"github.com/ibreez3/ai-chat/dispatch"
	"github.com/ibreez3/ai-chat/history"
	"github.com/ibreez3/ai-chat/render"
	"github.com/ibreez3/ai-chat/service"
)

const helpText = `Commands:
  /model <id>          switch model (gemini, claude, gpt, groq)
  /models              list models
  /clear               clear the conversation
  /history             print the conversation again
  /export <file.html>  write the conversation as an HTML page
  /help                show this help
  /quit                exit`

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file")
	model := flag.String("model", "", "initial model (overrides client.model)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.Client.Model = *model
	}
	initial, err := chat.ParseModel(cfg.Client.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cfg.Client.Model, err)
		os.Exit(1)
	}
	// Diagnostics go to stderr so they never interleave with the transcript on stdout.
	log := service.NewAppLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := history.OpenStorage(ctx, cfg)
	if err != nil {
		log.Error("open history storage", "backend", cfg.History.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	loc, _ := cfg.Location()
	renderer := render.New(render.LocaleFor(cfg.UI.Locale), loc)
	d := dispatch.New(cfg.Client.BaseURL, cfg.Client.MaxRetries, cfg.RetryDelay(),
		dispatch.WithLogger(log), dispatch.WithAttemptTimeout(cfg.AttemptTimeout()))

	id := uuid.NewString()
	opts := []service.SessionOption{
		service.WithSessionID(id),
		service.WithModel(initial),
		service.WithLocale(renderer.Locale()),
		service.WithSessionLogger(log),
		service.WithObserver(func(m chat.Message) {
			fmt.Println(renderer.Text(m))
			fmt.Println()
		}),
	}
	if tl, err := service.NewTranscriptLog(cfg.Log.Dir, id); err != nil {
		log.Warn("transcript log disabled", "error", err)
	} else {
		opts = append(opts, service.WithTranscript(tl))
	}
	sess := service.NewSession(history.NewStore(storage, cfg.History.Key, log), d, opts...)

	prior := sess.Load(ctx)
	if len(prior) == 0 {
		fmt.Println(renderer.Locale().Welcome)
		fmt.Println()
	}
	printAll(renderer, prior)

	r := &repl{sess: sess, renderer: renderer, out: os.Stdout}
	if err := r.run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("chat loop", "error", err)
		os.Exit(1)
	}
}

func printAll(r *render.Renderer, msgs []chat.Message) {
	for _, m := range msgs {
		fmt.Println(r.Text(m))
		fmt.Println()
	}
}

type repl struct {
	sess     *service.Session
	renderer *render.Renderer
	out      io.Writer
}

var errQuit = errors.New("quit")

func (r *repl) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	r.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := r.handle(ctx, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
			r.prompt()
		}
	}
}

func (r *repl) prompt() {
	fmt.Fprintf(r.out, "[%s] > ", r.sess.Model().DisplayName())
}

func (r *repl) handle(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		_, err := r.sess.Submit(ctx, line)
		if errors.Is(err, chat.ErrBusy) {
			fmt.Fprintln(r.out, "still waiting for the previous answer")
			return nil
		}
		return err
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return errQuit
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/models":
		current := r.sess.Model()
		for _, m := range chat.Models {
			mark := " "
			if m == current {
				mark = "*"
			}
			fmt.Fprintf(r.out, "%s %-7s %s\n", mark, m, m.DisplayName())
		}
	case "/model":
		m, err := chat.ParseModel(arg)
		if err != nil {
			fmt.Fprintf(r.out, "%s: %v\n", arg, err)
			return nil
		}
		if _, err := r.sess.SetModel(ctx, m); err != nil {
			fmt.Fprintln(r.out, err)
		}
	case "/clear":
		if err := r.sess.Clear(ctx); err != nil {
			fmt.Fprintln(r.out, "clear failed:", err)
			return nil
		}
		fmt.Fprintln(r.out, r.renderer.Locale().Welcome)
	case "/history":
		for _, m := range r.sess.Messages() {
			fmt.Fprintln(r.out, r.renderer.Text(m))
			fmt.Fprintln(r.out)
		}
	case "/export":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: /export <file.html>")
			return nil
		}
		if err := r.export(arg); err != nil {
			fmt.Fprintln(r.out, "export failed:", err)
			return nil
		}
		fmt.Fprintln(r.out, "exported to", arg)
	default:
		fmt.Fprintf(r.out, "unknown command %s, try /help\n", cmd)
	}
	return nil
}

func (r *repl) export(path string) error {
	page, err := r.renderer.Transcript("AI Chat", r.sess.Messages())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(page), 0o644)
}
