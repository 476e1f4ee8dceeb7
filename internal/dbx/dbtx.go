// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and DSN-based driver
// selection for the supported dialects.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect identifies the relational backend behind a DSN.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Driver returns the database/sql driver name registered for the dialect.
func (d Dialect) Driver() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// GooseDialect returns the dialect name understood by goose.
func (d Dialect) GooseDialect() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "pgx"
}

// DialectFromDSN picks the dialect by DSN shape:
// postgres:// and postgresql:// URLs and key=value strings are PostgreSQL,
// sqlite:// URLs, file: URIs, :memory: and *.db paths are SQLite.
//
// SQLite sources get the foreign_keys pragma so the driver applies it to
// every connection it opens.
func DialectFromDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, sqliteSource(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:", strings.HasSuffix(dsn, ".db"):
		return DialectSQLite, sqliteSource(dsn), nil
	case strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname="):
		return DialectPostgres, dsn, nil
	}
	return "", "", fmt.Errorf("unsupported database dsn %q", dsn)
}

const foreignKeysPragma = "_pragma=foreign_keys(1)"

func sqliteSource(src string) string {
	if src == ":memory:" {
		src = "file::memory:"
	}
	if strings.Contains(src, "_pragma=foreign_keys") {
		return src
	}
	if strings.Contains(src, "?") {
		return src + "&" + foreignKeysPragma
	}
	return src + "?" + foreignKeysPragma
}

// Open opens a connection pool for dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect, source, err := DialectFromDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.Driver(), source)
	if err != nil {
		return nil, "", fmt.Errorf("db open error: %w", err)
	}

	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("db ping error: %w", err)
	}

	return db, dialect, nil
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
