package repository

import (
	"context"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/schema"
)

type Categories struct {
	table[core.Category]
	transactions table[core.Transaction]
	budgets      table[core.Budget]
}

func decodeCategory(f *fields) core.Category {
	return core.Category{
		ID:   f.Int("id"),
		Name: f.Text("name"),
		Type: core.CategoryType(f.Text("type")),
	}
}

func (r *Categories) Create(ctx context.Context, c core.Category) (core.Category, error) {
	st, err := query.Insert(schema.Categories).
		Set("name", c.Name).
		Set("type", string(c.Type)).
		Returning().
		Build()
	created, err := r.one(ctx, st, err)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (r *Categories) Get(ctx context.Context, id int64) (core.Category, error) {
	return r.get(ctx, id)
}

// List returns categories ordered by name, restricted to typ unless it is
// empty.
func (r *Categories) List(ctx context.Context, typ core.CategoryType) ([]core.Category, error) {
	b := query.Select(schema.Categories)
	if typ != "" {
		b.Where(query.Eq("type", string(typ)))
	}
	return r.list(ctx, b.OrderBy("name", false))
}

// Rename changes the category name. The type is fixed at creation.
func (r *Categories) Rename(ctx context.Context, id int64, name string) (core.Category, error) {
	st, err := query.Update(schema.Categories).
		Set("name", name).
		Where(query.Eq("id", id)).
		Returning().
		Build()
	updated, err := r.one(ctx, st, err)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	return updated, nil
}

// Update applies the mutable fields of c, which for a category is only the
// name.
func (r *Categories) Update(ctx context.Context, c core.Category) (core.Category, error) {
	return r.Rename(ctx, c.ID, c.Name)
}

func (r *Categories) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}

func (r *Categories) Transactions(ctx context.Context, id int64) ([]core.Transaction, error) {
	return r.transactions.related(ctx, schema.Categories, "transactions", id)
}

func (r *Categories) Budgets(ctx context.Context, id int64) ([]core.Budget, error) {
	return r.budgets.related(ctx, schema.Categories, "budgets", id)
}
