// Package postgres manages the PostgreSQL connection pool and schema
// migrations for validation report persistence.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motifchem/geomval/internal/config"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

// Connection wraps a pgx connection pool together with its configuration and
// logger.  It is safe for concurrent use.
type Connection struct {
	pool *pgxpool.Pool
	cfg  config.DatabaseConfig
	log  logging.Logger
}

// Connect builds the pool, applies pool tunables from the configuration, and
// verifies connectivity with a ping before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "parsing database config")
	}
	configurePool(poolCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "creating connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError,
			fmt.Sprintf("pinging %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName))
	}

	log.Info("database connected",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
		logging.Int("max_conns", cfg.MaxConns))

	return &Connection{pool: pool, cfg: cfg, log: log}, nil
}

// configurePool copies pool tunables onto the pgx pool config, leaving pgx
// defaults in place for unset values.
func configurePool(poolCfg *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
}

// Pool exposes the underlying pgx pool for repositories.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// HealthCheck pings the database and warns when the pool is close to
// exhaustion.
func (c *Connection) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.pool.Ping(pingCtx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}

	stat := c.pool.Stat()
	if stat.MaxConns() > 0 {
		usage := float64(stat.AcquiredConns()) / float64(stat.MaxConns())
		if usage > 0.8 {
			c.log.Warn("connection pool usage high",
				logging.Int("acquired", int(stat.AcquiredConns())),
				logging.Int("max", int(stat.MaxConns())),
				logging.Float64("usage", usage))
		}
	}
	return nil
}

// Stats returns a snapshot of pool counters for diagnostics endpoints.
func (c *Connection) Stats() map[string]interface{} {
	stat := c.pool.Stat()
	return map[string]interface{}{
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"total_conns":    stat.TotalConns(),
		"max_conns":      stat.MaxConns(),
		"acquire_count":  stat.AcquireCount(),
	}
}

// Close releases every connection in the pool.
func (c *Connection) Close() {
	c.log.Info("closing database connection pool")
	c.pool.Close()
}

// WithTransaction runs fn inside a transaction, committing on nil error and
// rolling back otherwise.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "beginning transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError,
				fmt.Sprintf("transaction failed and rollback errored: %v", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "committing transaction")
	}
	return nil
}
