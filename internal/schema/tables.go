package schema

import "ledger/internal/core"

const (
	defaultNow       = "(unixepoch())"
	defaultLocalTime = "(datetime('now','localtime'))"
)

func id() Column {
	return Column{Name: "id", Type: Integer, NotNull: true, PrimaryKey: true, AutoIncrement: true}
}

func timestamps() []Column {
	return []Column{
		{Name: "created_at", Type: Integer, NotNull: true, Default: defaultNow, Mode: ModeTimestamp},
		{Name: "updated_at", Type: Integer, NotNull: true, Default: defaultNow, Mode: ModeTimestamp},
	}
}

// Accounts holds financial accounts: checking, savings, credit cards, cash,
// mortgages. Types follow the accounting split into assets and liabilities.
var Accounts = Table{
	Name: "account",
	Columns: append([]Column{
		id(),
		{Name: "name", Type: Text, NotNull: true},
		{Name: "type", Type: Text, NotNull: true, Enum: core.AccountTypes},
		{Name: "color", Type: Text},
		{Name: "currency", Type: Text},
		{Name: "icon", Type: Text},
		{Name: "description", Type: Text},
		{Name: "initial_balance", Type: Real, NotNull: true, Default: "0.0"},
		{Name: "current_balance", Type: Real, NotNull: true, Default: "0.0"},
		{Name: "status", Type: Text, NotNull: true, Default: "'Active'", Enum: core.AccountStatuses},
	}, timestamps()...),
}

var Categories = Table{
	Name: "category",
	Columns: []Column{
		id(),
		{Name: "name", Type: Text, NotNull: true},
		{Name: "type", Type: Text, NotNull: true, Enum: core.CategoryTypes},
	},
}

var Transactions = Table{
	Name: "transaction",
	Columns: []Column{
		id(),
		{Name: "amount", Type: Real, NotNull: true},
		{Name: "date", Type: Text, NotNull: true, Default: defaultLocalTime},
		{Name: "description", Type: Text},
		{Name: "payee", Type: Text},
		{Name: "account_id", Type: Integer, NotNull: true, References: &Reference{Table: "account", Column: "id"}},
		{Name: "category_id", Type: Integer, NotNull: true, References: &Reference{Table: "category", Column: "id"}},
		{Name: "transaction_type", Type: Text},
		{Name: "notes", Type: Text},
		{Name: "attachments", Type: Text, Mode: ModeJSON},
	},
}

var Budgets = Table{
	Name: "budget",
	Columns: append([]Column{
		id(),
		{Name: "name", Type: Text, NotNull: true},
		{Name: "amount", Type: Real, NotNull: true},
		{Name: "period_type", Type: Text, NotNull: true, Enum: core.PeriodTypes},
		{Name: "start_date", Type: Text, NotNull: true},
		{Name: "end_date", Type: Text},
		{Name: "category_id", Type: Integer, References: &Reference{Table: "category", Column: "id"}},
	}, timestamps()...),
}

var Goals = Table{
	Name: "goal",
	Columns: append([]Column{
		id(),
		{Name: "name", Type: Text, NotNull: true},
		{Name: "target_amount", Type: Real, NotNull: true},
		{Name: "current_amount", Type: Real, NotNull: true, Default: "0.0"},
		{Name: "target_date", Type: Text, NotNull: true},
		{Name: "description", Type: Text},
	}, timestamps()...),
}

// Tables returns every table, referenced tables before the tables that
// reference them.
func Tables() []Table {
	return []Table{Accounts, Categories, Transactions, Budgets, Goals}
}

// Relations returns the declared relations between tables.
func Relations() []Relation {
	return []Relation{
		{Name: "transactions", Kind: Many, Source: "account", Target: "transaction", Fields: []string{"id"}, References: []string{"account_id"}},
		{Name: "transactions", Kind: Many, Source: "category", Target: "transaction", Fields: []string{"id"}, References: []string{"category_id"}},
		{Name: "budgets", Kind: Many, Source: "category", Target: "budget", Fields: []string{"id"}, References: []string{"category_id"}},
		{Name: "account", Kind: One, Source: "transaction", Target: "account", Fields: []string{"account_id"}, References: []string{"id"}},
		{Name: "category", Kind: One, Source: "transaction", Target: "category", Fields: []string{"category_id"}, References: []string{"id"}},
		{Name: "category", Kind: One, Source: "budget", Target: "category", Fields: []string{"category_id"}, References: []string{"id"}, Optional: true},
	}
}
