// Package cache keeps recorded Gate responses in Redis so retried requests
// can be answered without taking the case lock. The Case Store stays the
// authority: a cache miss falls through to it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jurisgate/internal/config"
	"jurisgate/internal/model"
)

const keyPrefix = "gate:replay:"

// Redis is a replay cache keyed by (scope, request id).
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to cfg.Address and pings it.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client, time.Duration(cfg.ReplayTTLSec)*time.Second), nil
}

// NewRedisWithClient wraps an existing client. A non-positive ttl keeps entries forever.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

func key(scope model.ID, rid string) string {
	return keyPrefix + scope + ":" + rid
}

// Get returns the cached response, or ok=false on a miss.
func (r *Redis) Get(ctx context.Context, scope model.ID, rid string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key(scope, rid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("replay get: %w", err)
	}
	return b, true, nil
}

// Put caches a committed response.
func (r *Redis) Put(ctx context.Context, scope model.ID, rid string, response []byte) error {
	if err := r.client.Set(ctx, key(scope, rid), response, r.ttl).Err(); err != nil {
		return fmt.Errorf("replay put: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
