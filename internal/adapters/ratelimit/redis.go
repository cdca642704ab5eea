package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cratey/cratey/internal/domain"
)

func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Redis allows one action per key per window across every instance sharing
// the server.
type Redis struct {
	client *redis.Client
	window time.Duration
	prefix string
}

func NewRedis(client *redis.Client, window time.Duration) *Redis {
	return &Redis{client: client, window: window, prefix: "cratey:ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, key string) error {
	k := r.prefix + key
	ok, err := r.client.SetNX(ctx, k, time.Now().Unix(), r.window).Result()
	if err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}
	if ok {
		return nil
	}
	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("rate limit ttl %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return &domain.RateLimitError{RetryAfter: ttl}
}
