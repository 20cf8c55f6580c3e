package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lightmvc/lightmvc/pkg/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Conn is a named database connection. DB is always set; Pool is set
// for postgres connections and shares its connections with DB.
type Conn struct {
	DB     *sql.DB
	Pool   *pgxpool.Pool
	Name   string
	Driver string
}

// Open connects to the database described by cfg and verifies it with a ping.
func Open(ctx context.Context, name string, cfg config.ConnectionConfig) (*Conn, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &Conn{Name: name, Driver: cfg.Driver, Pool: pool, DB: stdlib.OpenDBFromPool(pool)}, nil

	case DriverSQLite:
		db, err := sql.Open(DriverSQLite, cfg.DSN)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("%w: %s", ErrOpenConnection, name), err)
		}
		// Every sqlite connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, errors.Join(fmt.Errorf("%w: %s", ErrOpenConnection, name), err)
		}
		return &Conn{Name: name, Driver: cfg.Driver, DB: db}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// connectPostgres opens a pgx pool, retrying with a linearly growing
// delay while the server is unreachable.
func connectPostgres(ctx context.Context, cfg config.ConnectionConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Join(ErrParseConfig, err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	var lastErr error
	for i := range max(cfg.RetryAttempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrOpenConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * interval):
		}
	}
	return nil, errors.Join(ErrOpenConnection, lastErr)
}

// Healthcheck pings the database.
func (c *Conn) Healthcheck(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.Join(fmt.Errorf("%w: %s", ErrHealthcheckFailed, c.Name), err)
	}
	return nil
}

// Placeholders returns n comma separated bind parameters in the
// driver's syntax.
func (c *Conn) Placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if c.Driver == DriverPostgres {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// Close releases the connection.
func (c *Conn) Close() error {
	err := c.DB.Close()
	if c.Pool != nil {
		c.Pool.Close()
	}
	return err
}
