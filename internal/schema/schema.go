// Package schema declares the ledger's tables, columns and relations.
//
// The declarations are the single description of the physical layout: the
// query compiler resolves columns against them, repositories decode rows by
// their column names, and the embedded migrations are checked against them
// in tests. Nothing here holds rows or validates values.
package schema

import "slices"

type (
	// ColumnType is the SQLite storage class a column is declared with.
	ColumnType string

	// Mode describes how the application interprets a column's stored value.
	Mode string

	RelationKind int
)

const (
	Integer ColumnType = "INTEGER"
	Real    ColumnType = "REAL"
	Text    ColumnType = "TEXT"

	ModePlain     Mode = ""
	ModeTimestamp Mode = "timestamp" // INTEGER unix seconds
	ModeJSON      Mode = "json"      // TEXT holding a JSON document
)

const (
	One RelationKind = iota
	Many
)

// Reference is a foreign-key target.
type Reference struct {
	Table  string
	Column string
}

type Column struct {
	Name          string
	Type          ColumnType
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
	// Default is an SQL expression rendered verbatim into DDL.
	Default    string
	Enum       []string
	Mode       Mode
	References *Reference
}

// HasDefault reports whether the database supplies a value when the column
// is omitted from an INSERT.
func (c Column) HasDefault() bool {
	return c.Default != "" || c.AutoIncrement || !c.NotNull
}

type Table struct {
	Name    string
	Columns []Column
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the table's primary key column.
func (t Table) PrimaryKey() Column {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c
		}
	}
	return Column{}
}

// ForeignKeys returns the columns that reference another table.
func (t Table) ForeignKeys() []Column {
	var fks []Column
	for _, c := range t.Columns {
		if c.References != nil {
			fks = append(fks, c)
		}
	}
	return fks
}

func (k RelationKind) String() string {
	if k == Many {
		return "many"
	}
	return "one"
}

// Relation links rows of Source to rows of Target: a Target row is related
// when its References columns equal the Source row's Fields columns. The
// same shape covers both directions, so "account has many transactions"
// and "transaction belongs to one account" are two relations.
type Relation struct {
	Name       string
	Kind       RelationKind
	Source     string
	Target     string
	Fields     []string
	References []string
	// Optional marks a One relation whose Fields may be NULL.
	Optional bool
}

// Lookup finds a declared table by name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// RelationsOf returns the relations whose source is table.
func RelationsOf(table string) []Relation {
	var out []Relation
	for _, r := range Relations() {
		if r.Source == table {
			out = append(out, r)
		}
	}
	return out
}

// FindRelation returns the named relation of table.
func FindRelation(table, name string) (Relation, bool) {
	i := slices.IndexFunc(Relations(), func(r Relation) bool {
		return r.Source == table && r.Name == name
	})
	if i < 0 {
		return Relation{}, false
	}
	return Relations()[i], true
}
