package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server, for setups where several
// clients share one holiday cache.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to addr. Keys are namespaced under "habitcal:".
func NewRedis(addr string) *Redis {
	return &Redis{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "habitcal:",
	}
}

func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, true, nil
}

func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Redis) Close() error {
	return s.rdb.Close()
}
