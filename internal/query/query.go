// Package query compiles structured calls against the declared schema into
// SQL text plus positional arguments.
//
// Every compiled Statement carries its Kind, so whoever executes it never
// has to guess from the SQL text whether rows come back.
package query

import (
	"errors"
	"fmt"
	"strings"

	"ledger/internal/schema"
)

// Kind tells the executor which driver primitive a statement needs.
type Kind int

const (
	// Read statements return rows and change nothing.
	Read Kind = iota
	// Write statements change rows and return none.
	Write
	// Returning statements change rows and return the affected rows.
	Returning
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case Returning:
		return "returning"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ReturnsRows reports whether statements of this kind produce rows.
func (k Kind) ReturnsRows() bool {
	return k == Read || k == Returning
}

// Statement is a compiled SQL statement.
type Statement struct {
	SQL   string
	Args  []any
	Kind  Kind
	Table string
	// Columns lists the result columns for statements that return rows.
	Columns []string
}

var (
	ErrUnknownColumn  = errors.New("unknown column")
	ErrNoAssignments  = errors.New("no columns to set")
	ErrUnboundedWrite = errors.New("update or delete without conditions")
)

// Condition is a single predicate; conditions passed together are ANDed.
type Condition struct {
	column string
	value  any
	isNull bool
}

// Eq matches rows where column equals v.
func Eq(column string, v any) Condition {
	return Condition{column: column, value: v}
}

// IsNull matches rows where column is NULL.
func IsNull(column string) Condition {
	return Condition{column: column, isNull: true}
}

type assignment struct {
	column string
	value  any
}

// builder holds what every statement builder shares: the target table and
// the first error met while building.
type builder struct {
	table schema.Table
	where []Condition
	err   error
}

func (b *builder) check(column string) bool {
	if b.err != nil {
		return false
	}
	if _, ok := b.table.Column(column); !ok {
		b.err = fmt.Errorf("%w: %s.%s", ErrUnknownColumn, b.table.Name, column)
		return false
	}
	return true
}

func (b *builder) addWhere(conds []Condition) {
	for _, c := range conds {
		if b.check(c.column) {
			b.where = append(b.where, c)
		}
	}
}

func (b *builder) whereClause(sb *strings.Builder, args []any) []any {
	if len(b.where) == 0 {
		return args
	}
	parts := make([]string, len(b.where))
	for i, c := range b.where {
		if c.isNull {
			parts[i] = schema.Quote(c.column) + " IS NULL"
			continue
		}
		parts[i] = schema.Quote(c.column) + " = ?"
		args = append(args, c.value)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(parts, " AND "))
	return args
}

func quoteAll(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = schema.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

func (b *builder) returningClause(sb *strings.Builder) []string {
	columns := b.table.ColumnNames()
	sb.WriteString(" RETURNING ")
	sb.WriteString(quoteAll(columns))
	return columns
}
