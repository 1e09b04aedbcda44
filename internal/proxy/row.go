package proxy

// Row is one result row as returned by a Driver: column names paired with
// values, in the order the database produced them.
type Row struct {
	columns []string
	values  []any
}

// NewRow pairs columns with values. Both slices must have the same length.
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Values returns the values only, in result order. This is the positional
// form handed back across the ORM boundary.
func (r Row) Values() []any { return r.values }

func (r Row) Len() int { return len(r.values) }

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

func flatten(rows []Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}
