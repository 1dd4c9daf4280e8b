// Package postgres opens the database/sql pool and applies the schema.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/lib/pq"

	"carewatch/internal/platform/config"
	"carewatch/pkg/platform/tx"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects with the lib/pq driver and pings the server.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	connector, err := pq.NewConnector(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	db := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies every embedded migration in file-name order. Migrations
// are idempotent, so re-running them on an existing schema is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// UniqueViolation is the SQLSTATE for a unique constraint failure.
const UniqueViolation = "23505"

// IsUniqueViolation reports whether err is a lib/pq unique violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == UniqueViolation
	}
	return false
}

// LockKey takes a transaction-scoped advisory lock on key. It must run inside
// a transaction; the lock is released on commit or rollback.
func LockKey(ctx context.Context, q tx.Querier, key string) error {
	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}
