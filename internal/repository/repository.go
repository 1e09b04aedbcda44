// Package repository maps the ledger tables onto core records. Statements are
// compiled by package query and run through the proxy; rows are decoded by
// column name against the declared schema.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/proxy"
	"ledger/internal/query"
	"ledger/internal/schema"
)

var ErrNotFound = errors.New("record not found")

// Runner executes compiled statements. *proxy.Proxy implements it.
type Runner interface {
	Run(ctx context.Context, st query.Statement) (proxy.Outcome, error)
}

// Store groups the repositories that share one runner.
type Store struct {
	Accounts     *Accounts
	Categories   *Categories
	Transactions *Transactions
	Budgets      *Budgets
	Goals        *Goals
}

func New(r Runner) *Store {
	accounts := table[core.Account]{run: r, def: schema.Accounts, decode: decodeAccount}
	categories := table[core.Category]{run: r, def: schema.Categories, decode: decodeCategory}
	transactions := table[core.Transaction]{run: r, def: schema.Transactions, decode: decodeTransaction}
	budgets := table[core.Budget]{run: r, def: schema.Budgets, decode: decodeBudget}
	goals := table[core.Goal]{run: r, def: schema.Goals, decode: decodeGoal}

	return &Store{
		Accounts:     &Accounts{table: accounts, transactions: transactions},
		Categories:   &Categories{table: categories, transactions: transactions, budgets: budgets},
		Transactions: &Transactions{table: transactions, accounts: accounts, categories: categories},
		Budgets:      &Budgets{table: budgets, categories: categories},
		Goals:        &Goals{table: goals},
	}
}

// table holds the statement plumbing shared by every repository.
type table[T any] struct {
	run    Runner
	def    schema.Table
	decode func(*fields) T
}

func (t table[T]) many(ctx context.Context, st query.Statement, buildErr error) ([]T, error) {
	if buildErr != nil {
		return nil, fmt.Errorf("build %s query: %w", t.def.Name, buildErr)
	}
	out, err := t.run.Run(ctx, st)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(out.Rows))
	for _, row := range out.Rows {
		f := &fields{row: row, table: t.def.Name}
		rec := t.decode(f)
		if f.err != nil {
			return nil, f.err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t table[T]) one(ctx context.Context, st query.Statement, buildErr error) (T, error) {
	records, err := t.many(ctx, st, buildErr)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(records) == 0 {
		var zero T
		return zero, fmt.Errorf("%s: %w", t.def.Name, ErrNotFound)
	}
	return records[0], nil
}

func (t table[T]) get(ctx context.Context, id int64) (T, error) {
	st, err := query.Select(t.def).Where(query.Eq("id", id)).Limit(1).Build()
	return t.one(ctx, st, err)
}

func (t table[T]) list(ctx context.Context, b *query.SelectBuilder) ([]T, error) {
	st, err := b.Build()
	return t.many(ctx, st, err)
}

// related loads the rows of T reached through the named relation of source.
func (t table[T]) related(ctx context.Context, source schema.Table, name string, keys ...any) ([]T, error) {
	rel, ok := schema.FindRelation(source.Name, name)
	if !ok {
		return nil, fmt.Errorf("unknown relation %s.%s", source.Name, name)
	}
	st, err := query.Related(rel, keys...).Build()
	return t.many(ctx, st, err)
}

func (t table[T]) delete(ctx context.Context, id int64) error {
	st, err := query.Delete(t.def).Where(query.Eq("id", id)).Build()
	if err != nil {
		return fmt.Errorf("build %s delete: %w", t.def.Name, err)
	}
	out, err := t.run.Run(ctx, st)
	if err != nil {
		return err
	}
	if out.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", t.def.Name, id, ErrNotFound)
	}
	return nil
}

// nullable maps the empty string to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func encodeList(items []string) (any, error) {
	if items == nil {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// fields decodes one row by column name and keeps the first error.
type fields struct {
	row   proxy.Row
	table string
	err   error
}

func (f *fields) value(column string) any {
	if f.err != nil {
		return nil
	}
	v, ok := f.row.Get(column)
	if !ok {
		f.err = fmt.Errorf("%s: column %q missing from result", f.table, column)
	}
	return v
}

func (f *fields) fail(column string, v any) {
	if f.err == nil {
		f.err = fmt.Errorf("%s.%s: unexpected value %#v", f.table, column, v)
	}
}

func (f *fields) Int(column string) int64 {
	switch v := f.value(column).(type) {
	case nil:
		return 0
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		f.fail(column, v)
		return 0
	}
}

func (f *fields) OptInt(column string) *int64 {
	if f.value(column) == nil {
		return nil
	}
	n := f.Int(column)
	return &n
}

func (f *fields) Float(column string) float64 {
	switch v := f.value(column).(type) {
	case nil:
		return 0
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		f.fail(column, v)
		return 0
	}
}

func (f *fields) Text(column string) string {
	switch v := f.value(column).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		f.fail(column, v)
		return ""
	}
}

const sqliteDateTime = "2006-01-02 15:04:05"

// Time reads a timestamp column stored as unix seconds. Rows written with
// CURRENT_TIMESTAMP hold text instead, which is accepted too.
func (f *fields) Time(column string) time.Time {
	switch v := f.value(column).(type) {
	case nil:
		return time.Time{}
	case int64:
		return time.Unix(v, 0).UTC()
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case string:
		t, err := time.Parse(sqliteDateTime, v)
		if err != nil {
			t, err = time.Parse(time.RFC3339, v)
		}
		if err != nil {
			f.fail(column, v)
			return time.Time{}
		}
		return t.UTC()
	default:
		f.fail(column, v)
		return time.Time{}
	}
}

// List reads a JSON array of strings.
func (f *fields) List(column string) []string {
	s := f.Text(column)
	if s == "" || f.err != nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		f.err = fmt.Errorf("%s.%s: %w", f.table, column, err)
		return nil
	}
	return out
}
