package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Client struct {
		BaseURL           string `yaml:"base_url" env:"AICHAT_BASE_URL"`
		MaxRetries        int    `yaml:"max_retries" env:"AICHAT_MAX_RETRIES"`
		RetryDelayMs      int    `yaml:"retry_delay_ms" env:"AICHAT_RETRY_DELAY_MS"`
		AttemptTimeoutSec int    `yaml:"attempt_timeout_sec" env:"AICHAT_ATTEMPT_TIMEOUT_SEC"`
		Model             string `yaml:"model" env:"AICHAT_MODEL"`
	} `yaml:"client"`
	History struct {
		Backend     string `yaml:"backend" env:"AICHAT_HISTORY_BACKEND"`
		Key         string `yaml:"key" env:"AICHAT_HISTORY_KEY"`
		Dir         string `yaml:"dir" env:"AICHAT_HISTORY_DIR"`
		RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
		RedisPrefix string `yaml:"redis_prefix" env:"AICHAT_REDIS_PREFIX"`
		DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	} `yaml:"history"`
	UI struct {
		Locale   string `yaml:"locale" env:"AICHAT_LOCALE"`
		Timezone string `yaml:"timezone" env:"AICHAT_TIMEZONE"`
	} `yaml:"ui"`
	Log struct {
		Level  string `yaml:"level" env:"AICHAT_LOG_LEVEL"`
		Format string `yaml:"format" env:"AICHAT_LOG_FORMAT"`
		Dir    string `yaml:"dir" env:"AICHAT_LOG_DIR"`
	} `yaml:"log"`
	Server struct {
		Port         int      `yaml:"port" env:"PORT"`
		AllowOrigins []string `yaml:"allow_origins" env:"AICHAT_ALLOW_ORIGINS" envSeparator:","`
	} `yaml:"server"`
	Upstream struct {
		RequestTimeoutSec int `yaml:"request_timeout_sec" env:"AICHAT_UPSTREAM_TIMEOUT_SEC"`
		MaxRetries        int `yaml:"max_retries" env:"AICHAT_UPSTREAM_MAX_RETRIES"`
		RetryBackoffMs    int `yaml:"retry_backoff_ms" env:"AICHAT_UPSTREAM_BACKOFF_MS"`
	} `yaml:"upstream"`
	Providers map[string]Provider `yaml:"providers"`
}

// Provider is an OpenAI-compatible endpoint serving one chat model.
type Provider struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"-"`
	System    string `yaml:"system"`
}

var defaultProviders = map[string]Provider{
	"gemini": {BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/", Model: "gemini-2.0-flash", APIKeyEnv: "GEMINI_API_KEY"},
	"claude": {BaseURL: "https://api.anthropic.com/v1/", Model: "claude-3-5-haiku-latest", APIKeyEnv: "ANTHROPIC_API_KEY"},
	"gpt":    {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
	"groq":   {BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.1-8b-instant", APIKeyEnv: "GROQ_API_KEY"},
}

// Load reads the YAML file at path (a missing file is fine), then .env and the
// process environment, and backfills defaults.
func Load(path string) (Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(&cfg)
	resolveProviderKeys(&cfg)
	return cfg, cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:5000"
	}
	cfg.Client.BaseURL = strings.TrimRight(cfg.Client.BaseURL, "/")
	if cfg.Client.MaxRetries == 0 {
		cfg.Client.MaxRetries = 3
	}
	if cfg.Client.RetryDelayMs == 0 {
		cfg.Client.RetryDelayMs = 1000
	}
	if cfg.Client.Model == "" {
		cfg.Client.Model = "gemini"
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = BackendFile
	}
	if cfg.History.Key == "" {
		cfg.History.Key = "ai-chat-history"
	}
	if cfg.History.Dir == "" {
		cfg.History.Dir = "data"
	}
	if cfg.UI.Locale == "" {
		cfg.UI.Locale = "id"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = "logs"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"*"}
	}
	if cfg.Upstream.RequestTimeoutSec == 0 {
		cfg.Upstream.RequestTimeoutSec = 120
	}
	if cfg.Upstream.MaxRetries == 0 {
		cfg.Upstream.MaxRetries = 3
	}
	if cfg.Upstream.RetryBackoffMs == 0 {
		cfg.Upstream.RetryBackoffMs = 1500
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]Provider{}
	}
	for name, def := range defaultProviders {
		p := cfg.Providers[name]
		if p.BaseURL == "" {
			p.BaseURL = def.BaseURL
		}
		if p.Model == "" {
			p.Model = def.Model
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = def.APIKeyEnv
		}
		cfg.Providers[name] = p
	}
}

func resolveProviderKeys(cfg *Config) {
	for name, p := range cfg.Providers {
		envName := p.APIKeyEnv
		if envName == "" {
			envName = strings.ToUpper(name) + "_API_KEY"
		}
		p.APIKey = os.Getenv(envName)
		cfg.Providers[name] = p
	}
}

func (c Config) Validate() error {
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client.max_retries must not be negative")
	}
	if c.Client.RetryDelayMs < 0 {
		return fmt.Errorf("client.retry_delay_ms must not be negative")
	}
	switch c.History.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.History.RedisURL == "" {
			return fmt.Errorf("history.redis_url is required for the redis backend")
		}
	case BackendPostgres:
		if c.History.DatabaseURL == "" {
			return fmt.Errorf("history.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	switch c.UI.Locale {
	case "id", "en":
	default:
		return fmt.Errorf("unknown locale %q", c.UI.Locale)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Client.RetryDelayMs) * time.Millisecond
}

func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Client.AttemptTimeoutSec) * time.Second
}

// Location resolves ui.timezone; empty means the machine's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.UI.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.UI.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ui.timezone: %w", err)
	}
	return loc, nil
}
