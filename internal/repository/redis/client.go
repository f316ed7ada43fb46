package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps the shared Redis connection used by the rate limiter and the
// workflow cache
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection before returning
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
