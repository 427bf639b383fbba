package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeInternal, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeCacheError, "redis connection failed")
)

// Client wraps a go-redis client with the configured key prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to connect to redis").
			WithDetail(cfg.Addr)
	}

	log.Info("redis connection established",
		logging.String("addr", cfg.Addr),
		logging.Int("db", cfg.DB),
	)

	return &Client{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		logger: log,
	}, nil
}

// Raw returns the underlying go-redis client.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// Key prepends the configured key prefix.
func (c *Client) Key(key string) string {
	return c.prefix + key
}

func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis ping failed")
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Info("closing redis connection")
	return c.rdb.Close()
}
