// Package redis wraps the go-redis client behind a small Cache interface
// used for canonical SMILES lookups and refinement job state.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/motifchem/geomval/internal/config"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeInternal, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "redis connection failed")
)

// Client wraps a go-redis client with lifecycle management.
type Client struct {
	rdb    redis.UniversalClient
	cfg    config.RedisConfig
	log    logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to the configured Redis server and verifies the
// connection with a ping.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	log.Info("redis connected",
		logging.String("addr", cfg.Addr),
		logging.Int("db", cfg.DB))

	return &Client{rdb: rdb, cfg: cfg, log: log}, nil
}

// Ping checks connectivity; used by health endpoints.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close shuts down the underlying connection pool.  Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rdb.Close(); err != nil {
		c.log.Error("closing redis client failed", logging.Err(err))
		return err
	}
	c.log.Info("redis client closed")
	return nil
}

// Underlying exposes the go-redis client for callers that need commands the
// Cache interface does not cover.
func (c *Client) Underlying() redis.UniversalClient {
	return c.rdb
}
