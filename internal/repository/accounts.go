package repository

import (
	"context"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/schema"
)

type Accounts struct {
	table[core.Account]
	transactions table[core.Transaction]
}

func decodeAccount(f *fields) core.Account {
	return core.Account{
		ID:             f.Int("id"),
		Name:           f.Text("name"),
		Type:           core.AccountType(f.Text("type")),
		Color:          f.Text("color"),
		Currency:       f.Text("currency"),
		Icon:           f.Text("icon"),
		Description:    f.Text("description"),
		InitialBalance: f.Float("initial_balance"),
		CurrentBalance: f.Float("current_balance"),
		Status:         core.AccountStatus(f.Text("status")),
		CreatedAt:      f.Time("created_at"),
		UpdatedAt:      f.Time("updated_at"),
	}
}

// Create inserts a and returns the stored row with its generated id and
// defaults. An empty status takes the column default.
func (r *Accounts) Create(ctx context.Context, a core.Account) (core.Account, error) {
	b := query.Insert(schema.Accounts).
		Set("name", a.Name).
		Set("type", string(a.Type)).
		Set("color", nullable(a.Color)).
		Set("currency", nullable(a.Currency)).
		Set("icon", nullable(a.Icon)).
		Set("description", nullable(a.Description)).
		Set("initial_balance", a.InitialBalance).
		Set("current_balance", a.CurrentBalance)
	if a.Status != "" {
		b.Set("status", string(a.Status))
	}
	st, err := b.Returning().Build()
	created, err := r.one(ctx, st, err)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (r *Accounts) Get(ctx context.Context, id int64) (core.Account, error) {
	return r.get(ctx, id)
}

// List returns every account ordered by name.
func (r *Accounts) List(ctx context.Context) ([]core.Account, error) {
	return r.list(ctx, query.Select(schema.Accounts).OrderBy("name", false))
}

// Update rewrites the mutable columns of account a.ID. The account type and
// the timestamps are left as stored.
func (r *Accounts) Update(ctx context.Context, a core.Account) (core.Account, error) {
	b := query.Update(schema.Accounts).
		Set("name", a.Name).
		Set("color", nullable(a.Color)).
		Set("currency", nullable(a.Currency)).
		Set("icon", nullable(a.Icon)).
		Set("description", nullable(a.Description)).
		Set("initial_balance", a.InitialBalance).
		Set("current_balance", a.CurrentBalance)
	if a.Status != "" {
		b.Set("status", string(a.Status))
	}
	st, err := b.Where(query.Eq("id", a.ID)).Returning().Build()
	updated, err := r.one(ctx, st, err)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return updated, nil
}

func (r *Accounts) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}

// Transactions returns the transactions booked against account id.
func (r *Accounts) Transactions(ctx context.Context, id int64) ([]core.Transaction, error) {
	return r.transactions.related(ctx, schema.Accounts, "transactions", id)
}
