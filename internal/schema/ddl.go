package schema

import (
	"fmt"
	"strings"
)

// Quote quotes an SQL identifier. Quoting is unconditional since
// "transaction" is a reserved word.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Definition renders the column as it appears inside CREATE TABLE.
func (c Column) Definition() string {
	var b strings.Builder
	b.WriteString(Quote(c.Name))
	b.WriteString(" ")
	b.WriteString(string(c.Type))
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if len(c.Enum) > 0 {
		values := make([]string, len(c.Enum))
		for i, v := range c.Enum {
			values[i] = quoteLiteral(v)
		}
		fmt.Fprintf(&b, " CHECK (%s IN (%s))", Quote(c.Name), strings.Join(values, ", "))
	}
	if c.References != nil {
		fmt.Fprintf(&b, " REFERENCES %s(%s)", Quote(c.References.Table), Quote(c.References.Column))
	}
	return b.String()
}

// CreateSQL renders the CREATE TABLE statement for t.
func (t Table) CreateSQL() string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = "\t" + c.Definition()
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", Quote(t.Name), strings.Join(defs, ",\n"))
}

// CreateAllSQL renders the DDL for every table in dependency order.
func CreateAllSQL() string {
	stmts := make([]string, 0, len(Tables()))
	for _, t := range Tables() {
		stmts = append(stmts, t.CreateSQL())
	}
	return strings.Join(stmts, "\n\n") + "\n"
}
