package repository

import (
	"context"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/schema"
)

type Goals struct {
	table[core.Goal]
}

func decodeGoal(f *fields) core.Goal {
	return core.Goal{
		ID:            f.Int("id"),
		Name:          f.Text("name"),
		TargetAmount:  f.Float("target_amount"),
		CurrentAmount: f.Float("current_amount"),
		TargetDate:    f.Text("target_date"),
		Description:   f.Text("description"),
		CreatedAt:     f.Time("created_at"),
		UpdatedAt:     f.Time("updated_at"),
	}
}

func (r *Goals) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	st, err := query.Insert(schema.Goals).
		Set("name", g.Name).
		Set("target_amount", g.TargetAmount).
		Set("current_amount", g.CurrentAmount).
		Set("target_date", g.TargetDate).
		Set("description", nullable(g.Description)).
		Returning().
		Build()
	created, err := r.one(ctx, st, err)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

func (r *Goals) Get(ctx context.Context, id int64) (core.Goal, error) {
	return r.get(ctx, id)
}

// List returns goals, nearest target date first.
func (r *Goals) List(ctx context.Context) ([]core.Goal, error) {
	return r.list(ctx, query.Select(schema.Goals).OrderBy("target_date", false).OrderBy("id", false))
}

func (r *Goals) Update(ctx context.Context, g core.Goal) (core.Goal, error) {
	st, err := query.Update(schema.Goals).
		Set("name", g.Name).
		Set("target_amount", g.TargetAmount).
		Set("current_amount", g.CurrentAmount).
		Set("target_date", g.TargetDate).
		Set("description", nullable(g.Description)).
		Where(query.Eq("id", g.ID)).
		Returning().
		Build()
	updated, err := r.one(ctx, st, err)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	return updated, nil
}

func (r *Goals) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}
