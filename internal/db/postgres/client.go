// Package postgres wraps a database/sql pool on the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/kailas-cloud/netmatch/internal/db"
)

var _ db.Pinger = (*Client)(nil)

// Config holds pool parameters for a Postgres client.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Client owns the *sql.DB pool.
type Client struct {
	db *sql.DB
}

// NewClient opens a pool. It does not dial; call WaitForReady for that.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Client{db: conn}, nil
}

// NewClientForTest wraps an existing pool, typically from sqlmock.
func NewClientForTest(conn *sql.DB) *Client {
	return &Client{db: conn}
}

// DB returns the underlying pool.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping verifies the connection to the database.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the pool.
func (c *Client) Close() {
	_ = c.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
