package repository

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/proxy"
	"ledger/internal/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "repo.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(proxy.New(db))
}

func seed(t *testing.T, s *Store) (core.Account, core.Category) {
	t.Helper()
	ctx := context.Background()
	acc, err := s.Accounts.Create(ctx, core.Account{Name: "Checking", Type: core.Asset, Currency: "EUR", InitialBalance: 100})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cat, err := s.Categories.Create(ctx, core.Category{Name: "Groceries", Type: core.Expense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return acc, cat
}

func TestAccountCreateFillsDefaults(t *testing.T) {
	s := newStore(t)
	before := time.Now().Add(-time.Minute)

	acc, _ := seed(t, s)
	if acc.ID == 0 {
		t.Fatal("expected generated id")
	}
	if acc.Status != core.Active {
		t.Errorf("status = %q, want Active", acc.Status)
	}
	if acc.CurrentBalance != 0 || acc.InitialBalance != 100 {
		t.Errorf("balances = %v/%v", acc.InitialBalance, acc.CurrentBalance)
	}
	if acc.CreatedAt.Before(before) || acc.UpdatedAt.IsZero() {
		t.Errorf("timestamps not filled: %v %v", acc.CreatedAt, acc.UpdatedAt)
	}
	if acc.Color != "" || acc.Icon != "" {
		t.Errorf("unset optional columns should decode empty, got %q %q", acc.Color, acc.Icon)
	}

	got, err := s.Accounts.Get(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, acc) {
		t.Fatalf("Get() = %+v, want %+v", got, acc)
	}
}

func TestAccountUpdateKeepsType(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	acc, _ := seed(t, s)

	acc.Name = "Main checking"
	acc.Type = core.Liability
	acc.Status = core.Closed
	acc.CurrentBalance = 42.5
	updated, err := s.Accounts.Update(ctx, acc)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Type != core.Asset {
		t.Errorf("type changed to %q", updated.Type)
	}
	if updated.Name != "Main checking" || updated.Status != core.Closed || updated.CurrentBalance != 42.5 {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(acc.UpdatedAt) {
		t.Errorf("updated_at should not move, %v -> %v", acc.UpdatedAt, updated.UpdatedAt)
	}

	if _, err := s.Accounts.Update(ctx, core.Account{ID: 999, Name: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryUpdateKeepsType(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, cat := seed(t, s)

	updated, err := s.Categories.Update(ctx, core.Category{ID: cat.ID, Name: "Food", Type: core.Income})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Food" || updated.Type != core.Expense {
		t.Fatalf("unexpected category %+v", updated)
	}
}

func TestCategoryListFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, c := range []core.Category{
		{Name: "Salary", Type: core.Income},
		{Name: "Rent", Type: core.Expense},
		{Name: "Bonus", Type: core.Income},
	} {
		if _, err := s.Categories.Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.Name, err)
		}
	}

	all, err := s.Categories.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("List() = %d, %v", len(all), err)
	}
	income, err := s.Categories.List(ctx, core.Income)
	if err != nil {
		t.Fatalf("List(Income): %v", err)
	}
	if len(income) != 2 || income[0].Name != "Bonus" || income[1].Name != "Salary" {
		t.Fatalf("unexpected income categories %+v", income)
	}
}

func TestTransactionRoundTripAndRelations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	acc, cat := seed(t, s)

	tx, err := s.Transactions.Create(ctx, core.Transaction{
		Amount:      -54.3,
		Date:        "2025-03-14",
		Payee:       "Market",
		AccountID:   acc.ID,
		CategoryID:  cat.ID,
		Attachments: []string{"receipt.pdf", "photo.jpg"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.Date != "2025-03-14" || !reflect.DeepEqual(tx.Attachments, []string{"receipt.pdf", "photo.jpg"}) {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	undated, err := s.Transactions.Create(ctx, core.Transaction{Amount: 10, AccountID: acc.ID, CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("Create undated: %v", err)
	}
	if _, err := core.ParseDate(undated.Date); err != nil {
		t.Fatalf("default date %q should parse: %v", undated.Date, err)
	}
	if undated.Attachments != nil {
		t.Fatalf("attachments should stay nil, got %v", undated.Attachments)
	}

	owner, err := s.Transactions.Account(ctx, tx)
	if err != nil || owner.ID != acc.ID {
		t.Fatalf("Account() = %+v, %v", owner, err)
	}
	category, err := s.Transactions.Category(ctx, tx)
	if err != nil || category.Name != "Groceries" {
		t.Fatalf("Category() = %+v, %v", category, err)
	}

	byAccount, err := s.Accounts.Transactions(ctx, acc.ID)
	if err != nil || len(byAccount) != 2 {
		t.Fatalf("Accounts.Transactions = %d, %v", len(byAccount), err)
	}
	byCategory, err := s.Categories.Transactions(ctx, cat.ID)
	if err != nil || len(byCategory) != 2 {
		t.Fatalf("Categories.Transactions = %d, %v", len(byCategory), err)
	}

	filtered, err := s.Transactions.List(ctx, TransactionFilter{AccountID: acc.ID, Limit: 1})
	if err != nil || len(filtered) != 1 {
		t.Fatalf("List(limit 1) = %d, %v", len(filtered), err)
	}
}

func TestTransactionRequiresExistingAccount(t *testing.T) {
	s := newStore(t)
	_, cat := seed(t, s)

	_, err := s.Transactions.Create(context.Background(), core.Transaction{Amount: 1, AccountID: 404, CategoryID: cat.ID})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
}

func TestBudgetCategoryIsOptional(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, cat := seed(t, s)

	overall, err := s.Budgets.Create(ctx, core.Budget{Name: "Everything", Amount: 2000, PeriodType: core.Monthly, StartDate: "2025-01-01"})
	if err != nil {
		t.Fatalf("create overall: %v", err)
	}
	if overall.CategoryID != nil {
		t.Fatalf("overall budget should decode nil category, got %v", *overall.CategoryID)
	}
	c, err := s.Budgets.Category(ctx, overall)
	if err != nil || c != nil {
		t.Fatalf("Category() of overall budget = %v, %v", c, err)
	}

	food, err := s.Budgets.Create(ctx, core.Budget{Name: "Food", Amount: 400, PeriodType: core.Monthly, StartDate: "2025-01-01", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("create food: %v", err)
	}
	c, err = s.Budgets.Category(ctx, food)
	if err != nil || c == nil || c.ID != cat.ID {
		t.Fatalf("Category() = %v, %v", c, err)
	}

	budgets, err := s.Categories.Budgets(ctx, cat.ID)
	if err != nil || len(budgets) != 1 || budgets[0].Name != "Food" {
		t.Fatalf("Categories.Budgets = %+v, %v", budgets, err)
	}
	o, err := s.Budgets.Overall(ctx)
	if err != nil || len(o) != 1 || o[0].ID != overall.ID {
		t.Fatalf("Overall() = %+v, %v", o, err)
	}
}

func TestGoalLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	g, err := s.Goals.Create(ctx, core.Goal{Name: "Emergency fund", TargetAmount: 5000, TargetDate: "2026-12-31"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.CurrentAmount != 0 {
		t.Fatalf("current amount = %v", g.CurrentAmount)
	}

	g.CurrentAmount = 6000
	g, err = s.Goals.Update(ctx, g)
	if err != nil || g.CurrentAmount != 6000 {
		t.Fatalf("Update: %+v, %v", g, err)
	}

	if err := s.Goals.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Goals.Delete(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
	if _, err := s.Goals.Get(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	goals, err := s.Goals.List(ctx)
	if err != nil || len(goals) != 0 {
		t.Fatalf("List() = %v, %v", goals, err)
	}
}

func TestDecodeTimestampFallback(t *testing.T) {
	row := proxy.NewRow([]string{"created_at", "updated_at"}, []any{"2025-01-02 03:04:05", int64(0)})
	f := &fields{row: row, table: "goal"}
	got := f.Time("created_at")
	if f.err != nil || !got.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("Time(text) = %v, %v", got, f.err)
	}
	if f.Int("missing"); f.err == nil {
		t.Fatal("missing column should be an error")
	}
}
