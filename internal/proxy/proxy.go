// Package proxy forwards compiled SQL to a database driver that exposes
// separate row-returning and side-effecting primitives, and reshapes the
// returned rows for the caller.
//
// Two entry points share one driver handle. Query serves the raw ORM calling
// convention (SQL text, positional parameters, "all" or "first") and decides
// read versus write from the SQL text. Run executes a query.Statement and
// trusts the statement's Kind instead.
package proxy

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"ledger/internal/log"
	"ledger/internal/query"
)

// ExecResult is what the side-effecting primitive reports. Query discards
// it; Run passes it on.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Driver is the database boundary.
type Driver interface {
	// Select runs a statement that returns rows.
	Select(ctx context.Context, sql string, args []any) ([]Row, error)
	// Execute runs a statement for its side effects.
	Execute(ctx context.Context, sql string, args []any) (ExecResult, error)
}

// Loader opens a driver for a connection identifier such as "sqlite:main.db".
type Loader func(ctx context.Context, id string) (Driver, error)

var ErrNoDriver = errors.New("proxy has neither a driver nor a loader")

var selectRe = regexp.MustCompile(`(?i)^\s*SELECT\b`)

// IsSelect reports whether sql starts with the SELECT keyword, ignoring case
// and leading whitespace. Everything else is treated as a write.
func IsSelect(sql string) bool {
	return selectRe.MatchString(sql)
}

// Outcome is the result of Run.
type Outcome struct {
	Rows []Row
	ExecResult
}

type Proxy struct {
	mu     sync.Mutex
	driver Driver
	load   Loader
	id     string
	logger *log.Logger
}

type Option func(*Proxy)

// WithLogger sets where driver failures are reported.
func WithLogger(l *log.Logger) Option {
	return func(p *Proxy) {
		if l != nil {
			p.logger = l.WithComponent(log.ComponentProxy)
		}
	}
}

// New returns a proxy over an already opened driver. The caller owns the
// driver and closes it.
func New(d Driver, opts ...Option) *Proxy {
	p := &Proxy{driver: d}
	p.apply(opts)
	return p
}

// Lazy returns a proxy that opens its driver with load on first use and
// keeps it for the proxy's lifetime. Concurrent first callers share a single
// load. A failed load is not remembered, so the next call tries again.
func Lazy(load Loader, id string, opts ...Option) *Proxy {
	p := &Proxy{load: load, id: id}
	p.apply(opts)
	return p
}

func (p *Proxy) apply(opts []Option) {
	p.logger = log.Discard()
	for _, o := range opts {
		o(p)
	}
}

// Driver returns the handle, opening it if needed.
func (p *Proxy) Driver(ctx context.Context) (Driver, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.driver != nil {
		return p.driver, nil
	}
	if p.load == nil {
		return nil, ErrNoDriver
	}

	d, err := p.load(ctx, p.id)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to open database",
			log.FieldConnection, p.id,
			log.FieldError, err)
		return nil, err
	}
	p.logger.InfoContext(ctx, "Database opened", log.FieldConnection, p.id)
	p.driver = d
	return d, nil
}

// Query runs sql with params and shapes the result according to method.
// Statements starting with SELECT go through Driver.Select and have each
// row flattened to its values; everything else goes through Driver.Execute
// and yields no rows. Driver errors are logged and returned unchanged.
func (p *Proxy) Query(ctx context.Context, sql string, params []any, method Method) (Result, error) {
	d, err := p.Driver(ctx)
	if err != nil {
		return Result{}, err
	}

	rows := [][]any{}
	if IsSelect(sql) {
		selected, err := d.Select(ctx, sql, params)
		if err != nil {
			p.logFailure(ctx, log.OpSelect, sql, len(params), err)
			return Result{}, err
		}
		rows = flatten(selected)
	} else {
		if _, err := d.Execute(ctx, sql, params); err != nil {
			p.logFailure(ctx, log.OpExecute, sql, len(params), err)
			return Result{}, err
		}
	}

	p.logger.DebugContext(ctx, "Statement proxied",
		log.FieldSQL, sql,
		log.FieldParams, len(params),
		log.FieldResultMode, string(method),
		log.FieldRows, len(rows))

	return newResult(method, rows), nil
}

// Run executes a compiled statement. Read and Returning statements use the
// row-returning primitive, so an INSERT ... RETURNING yields its rows; Write
// statements report rows affected and the last insert id.
func (p *Proxy) Run(ctx context.Context, st query.Statement) (Outcome, error) {
	d, err := p.Driver(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if st.Kind.ReturnsRows() {
		rows, err := d.Select(ctx, st.SQL, st.Args)
		if err != nil {
			p.logFailure(ctx, log.OpSelect, st.SQL, len(st.Args), err)
			return Outcome{}, err
		}
		return Outcome{Rows: rows, ExecResult: ExecResult{RowsAffected: int64(len(rows))}}, nil
	}

	res, err := d.Execute(ctx, st.SQL, st.Args)
	if err != nil {
		p.logFailure(ctx, log.OpExecute, st.SQL, len(st.Args), err)
		return Outcome{}, err
	}
	return Outcome{ExecResult: res}, nil
}

func (p *Proxy) logFailure(ctx context.Context, op, sql string, params int, err error) {
	fields := log.NewFields().
		WithStatement(sql, params).
		WithOperation(op).
		WithError(err)
	p.logger.ErrorContext(ctx, "SQL error", fields.ToSlice()...)
}
