package main

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ibreez3/ai-chat/api"
	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/dispatch"
	"github.com/ibreez3/ai-chat/history"
	"github.com/ibreez3/ai-chat/service"
)

// flakyAnswerer fails the first failures calls, then answers arithmetic.
type flakyAnswerer struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyAnswerer) Answer(ctx context.Context, model chat.Model, question string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("upstream overloaded")
	}
	if question == "2+2?" {
		return "4", nil
	}
	return "mock answer from " + string(model), nil
}

func (f *flakyAnswerer) Available(model chat.Model) bool { return model.Known() }

func (f *flakyAnswerer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func main() {
	log := service.NewAppLogger(os.Stdout, "warn", "text")
	gin.SetMode(gin.ReleaseMode)

	answerer := &flakyAnswerer{failures: 2}
	srv := httptest.NewServer(api.NewRouter(answerer, []string{"*"}, log))
	defer srv.Close()

	dir, err := os.MkdirTemp("", "ai-chat-mock-*")
	if err != nil {
		fmt.Println("temp dir:", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	storage, err := history.NewFileStorage(dir)
	if err != nil {
		fmt.Println("file storage:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d := dispatch.New(srv.URL, 3, 10*time.Millisecond, dispatch.WithLogger(log))
	sess := service.NewSession(history.NewStore(storage, history.DefaultKey, log), d,
		service.WithModel(chat.ModelGPT), service.WithSessionLogger(log))
	sess.Load(ctx)

	reply, err := sess.Submit(ctx, "2+2?")
	if err != nil || reply.Content != "4" || reply.Model != chat.ModelGPT {
		fmt.Println("submit failed:", reply.Content, err)
		os.Exit(1)
	}
	if n := answerer.count(); n != 3 {
		fmt.Println("expected 3 requests, got", n)
		os.Exit(2)
	}
	fmt.Println("answer:", reply.Content, "requests:", answerer.count())

	reloaded := history.NewStore(storage, history.DefaultKey, log).Load(ctx)
	if !reflect.DeepEqual(reloaded, sess.Messages()) {
		fmt.Println("reloaded history differs:", len(reloaded), "vs", len(sess.Messages()))
		os.Exit(3)
	}
	fmt.Println("history round-trip ok:", len(reloaded), "messages in", dir)
}
