package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ibreez3/ai-chat/chat"
)

// Answerer produces an answer for question using model.
type Answerer interface {
	Answer(ctx context.Context, model chat.Model, question string) (string, error)
	Available(model chat.Model) bool
}

type AskReq struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

func NewRouter(answerer Answerer, allowOrigins []string, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.Use(cors.New(corsConfig(allowOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
	})

	r.GET("/models", func(c *gin.Context) {
		c.JSON(http.StatusOK, ListModels(answerer))
	})

	r.POST("/ask", func(c *gin.Context) {
		var req AskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		question := strings.TrimSpace(req.Question)
		if question == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": chat.ErrEmptyQuestion.Error()})
			return
		}
		model, err := chat.ParseModel(req.Model)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown model: " + req.Model})
			return
		}
		if !answerer.Available(model) {
			c.JSON(http.StatusBadRequest, gin.H{"error": model.DisplayName() + " is not configured on this server"})
			return
		}
		answer, err := answerer.Answer(c.Request.Context(), model, question)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			log.Error("answer failed", "model", string(model), "error", err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}

// ListModels reports every selectable model and whether this server can answer for it.
func ListModels(answerer Answerer) []ModelInfo {
	out := make([]ModelInfo, 0, len(chat.Models))
	for _, m := range chat.Models {
		out = append(out, ModelInfo{ID: string(m), Name: m.DisplayName(), Available: answerer.Available(m)})
	}
	return out
}

func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
	}
	return cfg
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
