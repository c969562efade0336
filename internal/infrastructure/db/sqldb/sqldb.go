// Package sqldb implements the roster repositories on database/sql, for
// PostgreSQL (pgx) and SQLite (go-sqlite3).
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/atica/user-roster/internal/pkg/retry"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings required to open a SQL connection pool.
type Config struct {
	Dialect  Dialect
	DSN      string
	Attempts int
}

// Open opens the pool and pings it until the server answers or the attempts
// run out.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Dialect.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", cfg.Dialect.Name, err)
	}

	if cfg.Dialect.Name == SQLite.Name {
		// A single connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	policy := retry.Policy{Attempts: cfg.Attempts, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Dialect.Name, err)
	}
	return db, nil
}

// Migrate creates the roster tables and indexes when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migrate: %w", d.Name, err)
		}
	}
	return nil
}
