package repository

import (
	"context"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/schema"
)

type Budgets struct {
	table[core.Budget]
	categories table[core.Category]
}

func decodeBudget(f *fields) core.Budget {
	return core.Budget{
		ID:         f.Int("id"),
		Name:       f.Text("name"),
		Amount:     f.Float("amount"),
		PeriodType: core.PeriodType(f.Text("period_type")),
		StartDate:  f.Text("start_date"),
		EndDate:    f.Text("end_date"),
		CategoryID: f.OptInt("category_id"),
		CreatedAt:  f.Time("created_at"),
		UpdatedAt:  f.Time("updated_at"),
	}
}

func (r *Budgets) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	st, err := query.Insert(schema.Budgets).
		Set("name", b.Name).
		Set("amount", b.Amount).
		Set("period_type", string(b.PeriodType)).
		Set("start_date", b.StartDate).
		Set("end_date", nullable(b.EndDate)).
		Set("category_id", nullableID(b.CategoryID)).
		Returning().
		Build()
	created, err := r.one(ctx, st, err)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return created, nil
}

func (r *Budgets) Get(ctx context.Context, id int64) (core.Budget, error) {
	return r.get(ctx, id)
}

// List returns budgets by start date.
func (r *Budgets) List(ctx context.Context) ([]core.Budget, error) {
	return r.list(ctx, query.Select(schema.Budgets).OrderBy("start_date", false).OrderBy("id", false))
}

// Overall returns the budgets that apply to all spending.
func (r *Budgets) Overall(ctx context.Context) ([]core.Budget, error) {
	return r.list(ctx, query.Select(schema.Budgets).Where(query.IsNull("category_id")).OrderBy("start_date", false))
}

func (r *Budgets) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	st, err := query.Update(schema.Budgets).
		Set("name", b.Name).
		Set("amount", b.Amount).
		Set("period_type", string(b.PeriodType)).
		Set("start_date", b.StartDate).
		Set("end_date", nullable(b.EndDate)).
		Set("category_id", nullableID(b.CategoryID)).
		Where(query.Eq("id", b.ID)).
		Returning().
		Build()
	updated, err := r.one(ctx, st, err)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return updated, nil
}

func (r *Budgets) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}

// Category loads the category b is limited to, or nil for an overall budget.
func (r *Budgets) Category(ctx context.Context, b core.Budget) (*core.Category, error) {
	if b.CategoryID == nil {
		return nil, nil
	}
	categories, err := r.categories.related(ctx, schema.Budgets, "category", *b.CategoryID)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("category %d: %w", *b.CategoryID, ErrNotFound)
	}
	return &categories[0], nil
}
