package query

import (
	"fmt"
	"strings"

	"ledger/internal/schema"
)

type orderTerm struct {
	column string
	desc   bool
}

type SelectBuilder struct {
	builder
	columns []string
	order   []orderTerm
	limit   int
}

// Select starts a query over t. With no columns, every declared column is
// selected in declaration order.
func Select(t schema.Table, columns ...string) *SelectBuilder {
	b := &SelectBuilder{builder: builder{table: t}}
	if len(columns) == 0 {
		columns = t.ColumnNames()
	}
	for _, c := range columns {
		if b.check(c) {
			b.columns = append(b.columns, c)
		}
	}
	return b
}

// Related selects the rows of rel's target table that belong to a source
// row whose rel.Fields columns hold keys.
func Related(rel schema.Relation, keys ...any) *SelectBuilder {
	target, ok := schema.Lookup(rel.Target)
	if !ok {
		return &SelectBuilder{builder: builder{err: fmt.Errorf("relation %s.%s: unknown table %q", rel.Source, rel.Name, rel.Target)}}
	}
	b := Select(target)
	if len(keys) != len(rel.References) {
		b.err = fmt.Errorf("relation %s.%s: want %d keys, got %d", rel.Source, rel.Name, len(rel.References), len(keys))
		return b
	}
	for i, col := range rel.References {
		b.Where(Eq(col, keys[i]))
	}
	if rel.Kind == schema.One {
		b.Limit(1)
	}
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.addWhere(conds)
	return b
}

func (b *SelectBuilder) OrderBy(column string, desc bool) *SelectBuilder {
	if b.check(column) {
		b.order = append(b.order, orderTerm{column: column, desc: desc})
	}
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) Build() (Statement, error) {
	if b.err != nil {
		return Statement{}, b.err
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(quoteAll(b.columns))
	sb.WriteString(" FROM ")
	sb.WriteString(schema.Quote(b.table.Name))
	args := b.whereClause(&sb, nil)
	if len(b.order) > 0 {
		terms := make([]string, len(b.order))
		for i, o := range b.order {
			terms[i] = schema.Quote(o.column)
			if o.desc {
				terms[i] += " DESC"
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	return Statement{
		SQL:     sb.String(),
		Args:    args,
		Kind:    Read,
		Table:   b.table.Name,
		Columns: b.columns,
	}, nil
}

type InsertBuilder struct {
	builder
	values    []assignment
	returning bool
}

func Insert(t schema.Table) *InsertBuilder {
	return &InsertBuilder{builder: builder{table: t}}
}

// Set assigns a column value. Columns never set are left to their
// database defaults.
func (b *InsertBuilder) Set(column string, v any) *InsertBuilder {
	if b.check(column) {
		b.values = append(b.values, assignment{column: column, value: v})
	}
	return b
}

// Returning makes the statement return the inserted row.
func (b *InsertBuilder) Returning() *InsertBuilder {
	b.returning = true
	return b
}

func (b *InsertBuilder) Build() (Statement, error) {
	if b.err != nil {
		return Statement{}, b.err
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(schema.Quote(b.table.Name))
	args := make([]any, 0, len(b.values))
	if len(b.values) == 0 {
		sb.WriteString(" DEFAULT VALUES")
	} else {
		cols := make([]string, len(b.values))
		marks := make([]string, len(b.values))
		for i, a := range b.values {
			cols[i] = a.column
			marks[i] = "?"
			args = append(args, a.value)
		}
		fmt.Fprintf(&sb, " (%s) VALUES (%s)", quoteAll(cols), strings.Join(marks, ", "))
	}
	st := Statement{Args: args, Kind: Write, Table: b.table.Name}
	if b.returning {
		st.Columns = b.returningClause(&sb)
		st.Kind = Returning
	}
	st.SQL = sb.String()
	return st, nil
}

type UpdateBuilder struct {
	builder
	values    []assignment
	returning bool
}

func Update(t schema.Table) *UpdateBuilder {
	return &UpdateBuilder{builder: builder{table: t}}
}

func (b *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	if b.check(column) {
		b.values = append(b.values, assignment{column: column, value: v})
	}
	return b
}

func (b *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	b.addWhere(conds)
	return b
}

func (b *UpdateBuilder) Returning() *UpdateBuilder {
	b.returning = true
	return b
}

func (b *UpdateBuilder) Build() (Statement, error) {
	if b.err != nil {
		return Statement{}, b.err
	}
	if len(b.values) == 0 {
		return Statement{}, fmt.Errorf("update %s: %w", b.table.Name, ErrNoAssignments)
	}
	if len(b.where) == 0 {
		return Statement{}, fmt.Errorf("update %s: %w", b.table.Name, ErrUnboundedWrite)
	}
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(schema.Quote(b.table.Name))
	sb.WriteString(" SET ")
	sets := make([]string, len(b.values))
	args := make([]any, 0, len(b.values)+len(b.where))
	for i, a := range b.values {
		sets[i] = schema.Quote(a.column) + " = ?"
		args = append(args, a.value)
	}
	sb.WriteString(strings.Join(sets, ", "))
	args = b.whereClause(&sb, args)
	st := Statement{Args: args, Kind: Write, Table: b.table.Name}
	if b.returning {
		st.Columns = b.returningClause(&sb)
		st.Kind = Returning
	}
	st.SQL = sb.String()
	return st, nil
}

type DeleteBuilder struct {
	builder
	returning bool
}

func Delete(t schema.Table) *DeleteBuilder {
	return &DeleteBuilder{builder: builder{table: t}}
}

func (b *DeleteBuilder) Where(conds ...Condition) *DeleteBuilder {
	b.addWhere(conds)
	return b
}

func (b *DeleteBuilder) Returning() *DeleteBuilder {
	b.returning = true
	return b
}

func (b *DeleteBuilder) Build() (Statement, error) {
	if b.err != nil {
		return Statement{}, b.err
	}
	if len(b.where) == 0 {
		return Statement{}, fmt.Errorf("delete %s: %w", b.table.Name, ErrUnboundedWrite)
	}
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(schema.Quote(b.table.Name))
	args := b.whereClause(&sb, nil)
	st := Statement{Args: args, Kind: Write, Table: b.table.Name}
	if b.returning {
		st.Columns = b.returningClause(&sb)
		st.Kind = Returning
	}
	st.SQL = sb.String()
	return st, nil
}
