package repository

import (
	"context"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/schema"
)

type Transactions struct {
	table[core.Transaction]
	accounts   table[core.Account]
	categories table[core.Category]
}

// TransactionFilter narrows List. Zero fields are ignored.
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	Limit      int
}

func decodeTransaction(f *fields) core.Transaction {
	return core.Transaction{
		ID:              f.Int("id"),
		Amount:          f.Float("amount"),
		Date:            f.Text("date"),
		Description:     f.Text("description"),
		Payee:           f.Text("payee"),
		AccountID:       f.Int("account_id"),
		CategoryID:      f.Int("category_id"),
		TransactionType: f.Text("transaction_type"),
		Notes:           f.Text("notes"),
		Attachments:     f.List("attachments"),
	}
}

// Create inserts tx. Without a date the row is stamped with the database's
// local time.
func (r *Transactions) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	attachments, err := encodeList(tx.Attachments)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode attachments: %w", err)
	}
	b := query.Insert(schema.Transactions).
		Set("amount", tx.Amount).
		Set("description", nullable(tx.Description)).
		Set("payee", nullable(tx.Payee)).
		Set("account_id", tx.AccountID).
		Set("category_id", tx.CategoryID).
		Set("transaction_type", nullable(tx.TransactionType)).
		Set("notes", nullable(tx.Notes)).
		Set("attachments", attachments)
	if tx.Date != "" {
		b.Set("date", tx.Date)
	}
	st, err := b.Returning().Build()
	created, err := r.one(ctx, st, err)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

func (r *Transactions) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return r.get(ctx, id)
}

// List returns transactions newest first.
func (r *Transactions) List(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	b := query.Select(schema.Transactions)
	if filter.AccountID != 0 {
		b.Where(query.Eq("account_id", filter.AccountID))
	}
	if filter.CategoryID != 0 {
		b.Where(query.Eq("category_id", filter.CategoryID))
	}
	b.OrderBy("date", true).OrderBy("id", true)
	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	return r.list(ctx, b)
}

func (r *Transactions) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	attachments, err := encodeList(tx.Attachments)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode attachments: %w", err)
	}
	b := query.Update(schema.Transactions).
		Set("amount", tx.Amount).
		Set("description", nullable(tx.Description)).
		Set("payee", nullable(tx.Payee)).
		Set("account_id", tx.AccountID).
		Set("category_id", tx.CategoryID).
		Set("transaction_type", nullable(tx.TransactionType)).
		Set("notes", nullable(tx.Notes)).
		Set("attachments", attachments)
	if tx.Date != "" {
		b.Set("date", tx.Date)
	}
	st, err := b.Where(query.Eq("id", tx.ID)).Returning().Build()
	updated, err := r.one(ctx, st, err)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	return updated, nil
}

func (r *Transactions) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}

// Account loads the account tx is booked against.
func (r *Transactions) Account(ctx context.Context, tx core.Transaction) (core.Account, error) {
	accounts, err := r.accounts.related(ctx, schema.Transactions, "account", tx.AccountID)
	if err != nil {
		return core.Account{}, err
	}
	if len(accounts) == 0 {
		return core.Account{}, fmt.Errorf("account %d: %w", tx.AccountID, ErrNotFound)
	}
	return accounts[0], nil
}

// Category loads the category tx is classified under.
func (r *Transactions) Category(ctx context.Context, tx core.Transaction) (core.Category, error) {
	categories, err := r.categories.related(ctx, schema.Transactions, "category", tx.CategoryID)
	if err != nil {
		return core.Category{}, err
	}
	if len(categories) == 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", tx.CategoryID, ErrNotFound)
	}
	return categories[0], nil
}
