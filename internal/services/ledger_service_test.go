package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/proxy"
	"ledger/internal/repository"
	"ledger/internal/storage"
)

var _ Publisher = (*amqp.Client)(nil)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []amqp.ChangeMessage
	err  error
}

func (p *fakePublisher) PublishChange(ctx context.Context, msg amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *fakePublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Table + ":" + m.Op
	}
	return out
}

type closeRecorder struct {
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func newService(t *testing.T, opts ...Option) (*LedgerService, *repository.Store) {
	t.Helper()
	db, err := storage.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "svc.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := repository.New(proxy.New(db))
	return NewLedgerService(store, opts...), store
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, WithPublisher(pub))
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		want error
	}{
		{"account without name", func() error {
			_, err := svc.CreateAccount(ctx, core.Account{Type: core.Asset})
			return err
		}, core.ErrEmptyName},
		{"account with bad type", func() error {
			_, err := svc.CreateAccount(ctx, core.Account{Name: "x", Type: "Equity"})
			return err
		}, core.ErrInvalidAccountType},
		{"category with bad type", func() error {
			_, err := svc.CreateCategory(ctx, core.Category{Name: "x", Type: "Asset"})
			return err
		}, core.ErrInvalidCategoryType},
		{"transaction without account", func() error {
			_, err := svc.CreateTransaction(ctx, core.Transaction{Amount: 1, CategoryID: 1})
			return err
		}, core.ErrMissingAccount},
		{"budget with zero amount", func() error {
			_, err := svc.CreateBudget(ctx, core.Budget{Name: "b", PeriodType: core.Monthly, StartDate: "2025-01-01"})
			return err
		}, core.ErrInvalidAmount},
		{"goal with bad date", func() error {
			_, err := svc.CreateGoal(ctx, core.Goal{Name: "g", TargetAmount: 10, TargetDate: "someday"})
			return err
		}, core.ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
	if len(pub.ops()) != 0 {
		t.Fatalf("rejected writes must not publish, got %v", pub.ops())
	}
}

func TestWritesPublishChanges(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, WithPublisher(pub))
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, core.Account{Name: "Cash", Type: core.Asset})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	cat, err := svc.CreateCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	tx, err := svc.CreateTransaction(ctx, core.Transaction{Amount: -9.5, AccountID: acc.ID, CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	want := []string{"account:create", "category:create", "transaction:create", "transaction:delete"}
	got := pub.ops()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("published %v, want %v", got, want)
		}
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	svc, _ := newService(t, WithPublisher(pub))

	g, err := svc.CreateGoal(context.Background(), core.Goal{Name: "Bike", TargetAmount: 800, TargetDate: "2026-06-01"})
	if err != nil {
		t.Fatalf("CreateGoal should succeed despite publish failure: %v", err)
	}
	if g.ID == 0 {
		t.Fatal("goal not stored")
	}
}

func TestUpdateAccountKeepsType(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, core.Account{Name: "Card", Type: core.Liability})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	acc.Type = "bogus"
	acc.Name = "Credit card"
	updated, err := svc.UpdateAccount(ctx, acc)
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.Type != core.Liability || updated.Name != "Credit card" {
		t.Fatalf("unexpected account %+v", updated)
	}

	if _, err := svc.UpdateAccount(ctx, core.Account{ID: 404, Name: "x"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryListIsCachedUntilWrite(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.Category{Name: "Salary", Type: core.Income}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	first, err := svc.ListCategories(ctx, "")
	if err != nil || len(first) != 1 {
		t.Fatalf("ListCategories = %v, %v", first, err)
	}

	// Written behind the service's back: the cached list is still served.
	if _, err := store.Categories.Create(ctx, core.Category{Name: "Rent", Type: core.Expense}); err != nil {
		t.Fatalf("direct create: %v", err)
	}
	cached, _ := svc.ListCategories(ctx, "")
	if len(cached) != 1 {
		t.Fatalf("expected cached list, got %d entries", len(cached))
	}

	if _, err := svc.RenameCategory(ctx, first[0].ID, "Wages"); err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	fresh, _ := svc.ListCategories(ctx, "")
	if len(fresh) != 2 {
		t.Fatalf("cache should be invalidated by a category write, got %d entries", len(fresh))
	}
	income, _ := svc.ListCategories(ctx, core.Income)
	if len(income) != 1 || income[0].Name != "Wages" {
		t.Fatalf("unexpected income list %+v", income)
	}
	if _, err := svc.ListCategories(ctx, "Asset"); !errors.Is(err, core.ErrInvalidCategoryType) {
		t.Fatalf("expected invalid type error, got %v", err)
	}
}

func TestCachedCategoryListIsNotShared(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.Category{Name: "Rent", Type: core.Expense}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	for i := 0; i < 2; i++ {
		list, err := svc.ListCategories(ctx, "")
		if err != nil || len(list) != 1 {
			t.Fatalf("ListCategories = %v, %v", list, err)
		}
		if list[0].Name != "Rent" {
			t.Fatalf("call %d: cached list was changed by a caller: %+v", i+1, list)
		}
		list[0].Name = "Mutated"
	}
}

func TestRelationsThroughService(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	acc, _ := svc.CreateAccount(ctx, core.Account{Name: "Cash", Type: core.Asset})
	cat, _ := svc.CreateCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
	tx, err := svc.CreateTransaction(ctx, core.Transaction{Amount: -3, AccountID: acc.ID, CategoryID: cat.ID, Payee: "Bakery"})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	detail, err := svc.GetTransactionDetail(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransactionDetail: %v", err)
	}
	if detail.Account.Name != "Cash" || detail.Category.Name != "Food" || detail.Payee != "Bakery" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	budget, err := svc.CreateBudget(ctx, core.Budget{Name: "Food", Amount: 300, PeriodType: core.Monthly, StartDate: "2025-01-01", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	c, err := svc.BudgetCategory(ctx, budget.ID)
	if err != nil || c == nil || c.ID != cat.ID {
		t.Fatalf("BudgetCategory = %v, %v", c, err)
	}
	budgets, err := svc.CategoryBudgets(ctx, cat.ID)
	if err != nil || len(budgets) != 1 {
		t.Fatalf("CategoryBudgets = %v, %v", budgets, err)
	}
	txs, err := svc.AccountTransactions(ctx, acc.ID)
	if err != nil || len(txs) != 1 {
		t.Fatalf("AccountTransactions = %v, %v", txs, err)
	}
	if _, err := svc.AccountTransactions(ctx, 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
	}
}

func TestClose(t *testing.T) {
	t.Run("no closers", func(t *testing.T) {
		if err := NewLedgerService(nil).Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})

	t.Run("closes all and reports failures", func(t *testing.T) {
		a := &closeRecorder{err: errors.New("boom")}
		b := &closeRecorder{}
		err := NewLedgerService(nil, WithClosers(a, b)).Close()
		if err == nil || !a.closed || !b.closed {
			t.Fatalf("Close() = %v, closed %v %v", err, a.closed, b.closed)
		}
	})
}
