// Copyright 2026 FoodBlock Protocol
//
// Pooled database client and migration bootstrap
// Package store is FoodBlock's persistence layer (§4.4): connection
// pooling, embedded-migration bootstrap, the blocks/peers repositories, and
// the insert pipeline. A functional-options constructor wraps a pooled
// *sql.DB and a go:embed migration runner.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/foodxdevelopment/foodblock/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client wraps a pooled *sql.DB with health checks and migration support.
type Client struct {
	db     *sql.DB
	logger *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default component logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient opens a connection pool against databaseURL and verifies it
// with a ping before returning.
func NewClient(databaseURL string, opts ...ClientOption) (*Client, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("store: database URL cannot be empty")
	}

	client := &Client{logger: logging.New("Store", logging.LevelInfo)}
	for _, opt := range opts {
		opt(client)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(time.Hour)
	client.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	client.logger.Infof("connected to database")
	return client, nil
}

// DB returns the underlying *sql.DB for callers that need raw access
// (repositories live in the same package and use this directly).
func (c *Client) DB() *sql.DB { return c.db }

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	c.logger.Infof("closing database connection")
	return c.db.Close()
}

// Ping reports whether the database is reachable, backing GET /health
// (§4.9, §7 unavailable kind).
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Migration is one embedded schema file.
type Migration struct {
	Version  string
	Filename string
	SQL      string
}

// MigrateUp applies every embedded migration not yet recorded in
// schema_migrations, in version order.
func (c *Client) MigrateUp(ctx context.Context) error {
	migrations, err := c.loadMigrations()
	if err != nil {
		return fmt.Errorf("store: load migrations: %w", err)
	}

	applied, err := c.appliedMigrations(ctx)
	if err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("store: applied migrations: %w", err)
		}
		applied = map[string]bool{}
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		c.logger.Infof("applying migration %s", m.Version)
		if err := c.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("store: apply migration %s: %w", m.Version, err)
		}
	}
	return nil
}

func (c *Client) loadMigrations() ([]Migration, error) {
	var out []Migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, Migration{
			Version:  strings.TrimSuffix(d.Name(), ".sql"),
			Filename: d.Name(),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (c *Client) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (c *Client) applyMigration(ctx context.Context, m Migration) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("exec migration sql: %w", err)
	}
	return tx.Commit()
}
