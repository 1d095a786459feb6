package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ibreez3/ai-chat/api"
	"github.com/ibreez3/ai-chat/chat"
	"github.com/ibreez3/ai-chat/config"
	"github.com/ibreez3/ai-chat/openai"
	"github.com/ibreez3/ai-chat/service"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := service.NewAppLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	answerer := openai.NewAnswerer(cfg)
	for _, m := range chat.Models {
		if !answerer.Available(m) {
			log.Warn("provider has no API key, model disabled", "model", m, "env", cfg.Providers[string(m)].APIKeyEnv)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(answerer, cfg.Server.AllowOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("ask server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("ask server stopped")
}
