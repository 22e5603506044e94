package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the production TokenCache backed by a Redis instance.
type RedisCache struct {
	client *redis.Client
}

// NewRedis parses the URL, connects, and verifies connectivity with a ping.
func NewRedis(ctx context.Context, url string) (*RedisCache, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Set(ctx context.Context, username, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, Key(username), token, ttl).Err(); err != nil {
		return fmt.Errorf("cache token: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, username string) (string, error) {
	val, err := c.client.Get(ctx, Key(username)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read cached token: %w", err)
	}
	return val, nil
}

func (c *RedisCache) Delete(ctx context.Context, username string) error {
	// DEL on a missing key returns 0, which is still a success.
	if err := c.client.Del(ctx, Key(username)).Err(); err != nil {
		return fmt.Errorf("delete cached token: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error { return c.client.Close() }
