package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// Client wraps go-redis with an enabled/disabled switch.
// ⭐ SSOT: Redis 연결은 이 패키지에서만 생성
// When Redis is disabled in config every operation is a silent no-op, so
// callers never need their own feature flag.
type Client struct {
	rdb     *redis.Client
	enabled bool
	logger  *logger.Logger
}

// New creates a Redis client from config.
func New(cfg *config.Config, log *logger.Logger) (*Client, error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, cache operations will be no-ops")
		return &Client{enabled: false, logger: log}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{rdb: rdb, enabled: true, logger: log}, nil
}

// Enabled reports whether a live connection exists.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close closes the connection.
func (c *Client) Close() error {
	if !c.enabled || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
