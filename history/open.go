package history

import (
	"context"
	"fmt"

	"github.com/ibreez3/ai-chat/config"
)

// OpenStorage builds the backend named by history.backend. The returned close
// func releases any connection and is never nil.
func OpenStorage(ctx context.Context, cfg config.Config) (Storage, func(), error) {
	noop := func() {}
	switch cfg.History.Backend {
	case config.BackendMemory:
		return NewMemoryStorage(), noop, nil
	case config.BackendFile:
		s, err := NewFileStorage(cfg.History.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case config.BackendRedis:
		client, err := NewRedisClient(ctx, cfg.History.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStorage(client, cfg.History.RedisPrefix), func() { client.Close() }, nil
	case config.BackendPostgres:
		pool, err := NewPool(ctx, cfg.History.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		s, err := NewPostgresStorage(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}
