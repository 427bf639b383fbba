// Package postgres manages the PostgreSQL connection pool and schema
// migrations for the intelligence platform.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// Connection manages the PostgreSQL connection pool.
type Connection struct {
	pool   *pgxpool.Pool
	cfg    config.DatabaseConfig
	logger logging.Logger
	once   sync.Once
}

// NewConnection establishes the connection pool and verifies it with a ping.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "invalid database configuration")
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed")
	}

	log.Info("connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
	)

	return &Connection{pool: pool, cfg: cfg, logger: log}, nil
}

// Pool returns the underlying pgx pool.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// HealthCheck verifies the database connection status.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}

	stat := c.pool.Stat()
	if total := stat.TotalConns(); total > 0 {
		usage := float64(stat.AcquiredConns()) / float64(total)
		if usage > 0.8 {
			c.logger.Warn("high database connection pool usage",
				logging.Int("acquired", int(stat.AcquiredConns())),
				logging.Int("total", int(total)),
				logging.Float64("usage", usage),
			)
		}
	}
	return nil
}

// Close releases the connection pool.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.pool.Close()
		c.logger.Info("closed PostgreSQL connection pool")
	})
}
