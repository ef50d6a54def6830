// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/logger"
)

const (
	dialTimeout   = 5 * time.Second
	ioTimeout     = 3 * time.Second
	poolTimeout   = 4 * time.Second
	healthTimeout = 3 * time.Second
)

// Client owns the Redis connection used for guest carts and rate limiting
type Client struct {
	rdb *redis.Client
}

func options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolTimeout:  poolTimeout,
	}
}

// NewConnection dials Redis and pings it once before handing the client out
func NewConnection(cfg *config.Config, log logrus.FieldLogger) (*Client, error) {
	client := &Client{rdb: redis.NewClient(options(cfg))}
	if err := client.Health(context.Background()); err != nil {
		client.rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Component(log, "redis").
		WithFields(logrus.Fields{"addr": cfg.GetRedisAddr(), "db": cfg.Redis.DB}).
		Info("✅ Redis connection established successfully")

	return client, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetClient returns the Redis client instance
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Health pings Redis, bounded by a short timeout
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}
