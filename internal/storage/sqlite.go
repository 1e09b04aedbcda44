// Package storage opens the SQLite database behind the proxy and implements
// its two driver primitives on database/sql.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ledger/internal/log"
	"ledger/internal/proxy"
	"ledger/internal/schema"

	_ "modernc.org/sqlite"
)

// Scheme is the connection identifier prefix understood by Open.
const Scheme = "sqlite"

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

var ErrUnsupportedScheme = errors.New("unsupported connection scheme")

// ParseConnection extracts the database path from an identifier such as
// "sqlite:main.db" or "sqlite://data/main.db". A bare path is accepted as is.
func ParseConnection(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("empty connection identifier")
	}
	if id == Memory {
		return Memory, nil
	}

	scheme, rest, found := strings.Cut(id, ":")
	// No scheme, or a Windows drive letter.
	if !found || len(scheme) <= 1 || strings.ContainsAny(scheme, `/\.`) {
		return id, nil
	}
	if !strings.EqualFold(scheme, Scheme) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	path := strings.TrimPrefix(rest, "//")
	if path == "" {
		return "", fmt.Errorf("connection %q has no path", id)
	}
	return path, nil
}

// DSN builds the driver data source name for path. Foreign keys are switched
// on for every connection; SQLite leaves them off by default.
func DSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != Memory {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	return path + "?" + pragmas
}

// DB is an open SQLite database. It satisfies proxy.Driver.
type DB struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

var _ proxy.Driver = (*DB)(nil)

// Open resolves id, creates the database file and its directory if needed,
// applies pending migrations and returns the handle.
func Open(ctx context.Context, id string, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	path, err := ParseConnection(id)
	if err != nil {
		return nil, err
	}

	memory := path == Memory
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := DSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if memory {
		// Every new connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if memory {
		err = schema.ApplyUp(ctx, db)
	} else {
		err = schema.RunMigrations(dsn)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.InfoContext(ctx, "SQLite database ready", "path", path)

	return &DB{db: db, path: path, logger: logger}, nil
}

// Loader adapts Open to proxy.Loader.
func Loader(logger *log.Logger) proxy.Loader {
	return func(ctx context.Context, id string) (proxy.Driver, error) {
		db, err := Open(ctx, id, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

func (d *DB) Path() string { return d.path }

// SQL exposes the underlying pool for callers that need transactions or
// maintenance statements.
func (d *DB) SQL() *sql.DB { return d.db }

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	d.logger.Info("Closing SQLite database", "path", d.path)
	return d.db.Close()
}

// Select runs a row-returning statement. Integers come back as int64, reals
// as float64 and text as string. Byte values stay []byte unless the column is
// declared with text affinity.
func (d *DB) Select(ctx context.Context, query string, args []any) ([]proxy.Row, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	textual := make([]bool, len(types))
	for i, ct := range types {
		textual[i] = hasTextAffinity(ct.DatabaseTypeName())
	}

	var out []proxy.Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok && textual[i] {
				values[i] = string(b)
			}
		}
		out = append(out, proxy.NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// hasTextAffinity applies SQLite's affinity rule for declared column types.
func hasTextAffinity(declType string) bool {
	t := strings.ToUpper(declType)
	if strings.Contains(t, "INT") {
		return false
	}
	return strings.Contains(t, "CHAR") || strings.Contains(t, "CLOB") || strings.Contains(t, "TEXT")
}

// Execute runs a statement for its side effects.
func (d *DB) Execute(ctx context.Context, query string, args []any) (proxy.ExecResult, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return proxy.ExecResult{}, err
	}

	var out proxy.ExecResult
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}
