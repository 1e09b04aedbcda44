// Package sheets defines the export of ledger transactions to a
// spreadsheet. Adapters live in subpackages.
package sheets

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Header is the column layout of an exported transaction row.
var Header = []string{"Date", "Account", "Category", "Type", "Payee", "Description", "Amount", "Currency", "ID"}

// IDColumn is the spreadsheet column holding the transaction id.
const IDColumn = "I"

// Row is one exported transaction with its account and category resolved.
type Row struct {
	TransactionID int64
	Date          string
	Account       string
	Category      string
	CategoryType  core.CategoryType
	Payee         string
	Description   string
	Amount        decimal.Decimal
	Currency      string
}

// NewRow builds the export row for tx. The amount is rounded to cents.
func NewRow(tx core.Transaction, account core.Account, category core.Category) Row {
	return Row{
		TransactionID: tx.ID,
		Date:          tx.Date,
		Account:       account.Name,
		Category:      category.Name,
		CategoryType:  category.Type,
		Payee:         tx.Payee,
		Description:   tx.Description,
		Amount:        decimal.NewFromFloat(tx.Amount).Round(2),
		Currency:      account.Currency,
	}
}

// Year returns the year of the row's date, or 0 when it cannot be parsed.
func (r Row) Year() int {
	t, err := core.ParseDate(r.Date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Values renders the row in Header order. The amount is written as text
// with two decimals so the sheet never sees binary float noise.
func (r Row) Values() []any {
	return []any{
		r.Date,
		r.Account,
		r.Category,
		string(r.CategoryType),
		r.Payee,
		r.Description,
		r.Amount.StringFixed(2),
		r.Currency,
		strconv.FormatInt(r.TransactionID, 10),
	}
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// Append writes r and returns a reference to where it landed. Writing
		// a transaction that was already exported is a no-op.
		Append(ctx context.Context, r Row) (rowRef string, err error)
	}

	TransactionDeleter interface {
		// Remove deletes the row exported for the transaction id from year's
		// sheet, or from every year's sheet when year is 0. A missing row is
		// not an error.
		Remove(ctx context.Context, transactionID int64, year int) error
	}
)
