// Package sqlstore provides a SQL-backed implementation of the storage.Store interface.
// SQLite (modernc.org/sqlite, no CGO) is the default; PostgreSQL is reached through pgx.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/storage"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	// sqlx only knows "sqlite3" out of the box.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Ensure SQLStore implements storage.Store
var _ storage.Store = (*SQLStore)(nil)

// SQLStore implements storage.Store on top of sqlx.
// A SQLStore is either bound to the connection pool or to one transaction.
type SQLStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

// New opens the database, applies the schema and returns a ready store.
// For SQLite the parent directory of the database file is created if needed.
func New(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One writer at a time; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := Migrate(context.Background(), db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened database without running migrations.
func NewWithDB(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

// Close closes the database connection. It is a no-op on a transaction-bound store.
func (s *SQLStore) Close() error {
	if s.inTx() {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx() {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) inTx() bool {
	_, ok := s.q.(*sqlx.Tx)
	return ok
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.q.Rebind(query), args...)
}

func (s *SQLStore) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, s.q, dest, s.q.Rebind(query), args...)
}

func (s *SQLStore) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, s.q, dest, s.q.Rebind(query), args...)
}

// selectIn expands the single slice argument of query into an IN list.
func (s *SQLStore) selectIn(ctx context.Context, dest any, query string, ids []string) error {
	expanded, args, err := sqlx.In(query, ids)
	if err != nil {
		return fmt.Errorf("failed to expand IN clause: %w", err)
	}
	return s.selectAll(ctx, dest, expanded, args...)
}

// sqliteDSN creates the database directory and enables foreign keys on every connection.
func sqliteDSN(dsn string) (string, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", fmt.Errorf("sqlite database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}

// money renders an amount in its canonical stored form.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// Ping verifies the database connection is alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
