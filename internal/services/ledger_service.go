package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/repository"
	"ledger/internal/schema"
)

// Publisher announces row changes. *amqp.Client implements it.
type Publisher interface {
	PublishChange(ctx context.Context, msg amqp.ChangeMessage) error
}

// DefaultCategoryTTL is how long a cached category list is served.
const DefaultCategoryTTL = 5 * time.Minute

// LedgerService validates input, writes through the repositories and
// announces every successful write. Publishing is best effort: a write that
// reached the database is never reported as failed because the event could
// not be sent.
type LedgerService struct {
	store      *repository.Store
	publisher  Publisher
	categories *cache.LRU[core.CategoryType, []core.Category]
	closers    []io.Closer
	logger     *log.Logger
}

type Option func(*LedgerService)

func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// WithCategoryTTL sets how long category lists are cached.
func WithCategoryTTL(ttl time.Duration) Option {
	return func(s *LedgerService) {
		s.categories = cache.NewLRU[core.CategoryType, []core.Category](len(core.CategoryTypes)+1, ttl)
	}
}

// WithClosers registers resources released by Close, in order.
func WithClosers(c ...io.Closer) Option {
	return func(s *LedgerService) { s.closers = append(s.closers, c...) }
}

func NewLedgerService(store *repository.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:  store,
		logger: log.Discard(),
	}
	WithCategoryTTL(DefaultCategoryTTL)(s)
	for _, o := range opts {
		o(s)
	}
	return s
}

// CategoryCache exposes the category cache so it can be swept periodically.
func (s *LedgerService) CategoryCache() cache.Cleaner { return s.categories }

func (s *LedgerService) publish(ctx context.Context, table string, id int64, op string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeMessage(table, id, op)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change",
			log.FieldTable, table,
			log.FieldID, id,
			log.FieldOperation, op,
			log.FieldError, err)
	}
}

// Accounts

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	created, err := s.store.Accounts.Create(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.logger.InfoContext(ctx, "Account created", log.FieldID, created.ID, "name", created.Name)
	s.publish(ctx, schema.Accounts.Name, created.ID, amqp.OpCreate)
	return created, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.store.Accounts.Get(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.Accounts.List(ctx)
}

// UpdateAccount applies a's mutable fields. The stored type is kept whatever
// a carries.
func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	current, err := s.store.Accounts.Get(ctx, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	a.Type = current.Type
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	updated, err := s.store.Accounts.Update(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.publish(ctx, schema.Accounts.Name, updated.ID, amqp.OpUpdate)
	return updated, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.store.Accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, schema.Accounts.Name, id, amqp.OpDelete)
	return nil
}

func (s *LedgerService) AccountTransactions(ctx context.Context, id int64) ([]core.Transaction, error) {
	if _, err := s.store.Accounts.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Accounts.Transactions(ctx, id)
}

// Categories

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.Categories.Create(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.categories.Purge()
	s.publish(ctx, schema.Categories.Name, created.ID, amqp.OpCreate)
	return created, nil
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.Categories.Get(ctx, id)
}

// ListCategories returns categories of typ, or all of them when typ is
// empty, from cache when possible.
func (s *LedgerService) ListCategories(ctx context.Context, typ core.CategoryType) ([]core.Category, error) {
	if typ != "" && !typ.Valid() {
		return nil, core.ErrInvalidCategoryType
	}
	if cached, ok := s.categories.Get(typ); ok {
		return slices.Clone(cached), nil
	}
	list, err := s.store.Categories.List(ctx, typ)
	if err != nil {
		return nil, err
	}
	s.categories.Set(typ, slices.Clone(list))
	return list, nil
}

// RenameCategory changes a category's name; its type cannot change.
func (s *LedgerService) RenameCategory(ctx context.Context, id int64, name string) (core.Category, error) {
	current, err := s.store.Categories.Get(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	current.Name = name
	if err := current.Validate(); err != nil {
		return core.Category{}, err
	}
	updated, err := s.store.Categories.Update(ctx, current)
	if err != nil {
		return core.Category{}, err
	}
	s.categories.Purge()
	s.publish(ctx, schema.Categories.Name, id, amqp.OpUpdate)
	return updated, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.Categories.Delete(ctx, id); err != nil {
		return err
	}
	s.categories.Purge()
	s.publish(ctx, schema.Categories.Name, id, amqp.OpDelete)
	return nil
}

func (s *LedgerService) CategoryTransactions(ctx context.Context, id int64) ([]core.Transaction, error) {
	if _, err := s.store.Categories.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Categories.Transactions(ctx, id)
}

func (s *LedgerService) CategoryBudgets(ctx context.Context, id int64) ([]core.Budget, error) {
	if _, err := s.store.Categories.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Categories.Budgets(ctx, id)
}

// Transactions

func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.Transactions.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction recorded",
		log.FieldID, created.ID,
		"amount", created.Amount,
		"account_id", created.AccountID)
	s.publish(ctx, schema.Transactions.Name, created.ID, amqp.OpCreate)
	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.Transactions.Get(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]core.Transaction, error) {
	return s.store.Transactions.List(ctx, filter)
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.Transactions.Update(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, schema.Transactions.Name, updated.ID, amqp.OpUpdate)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.Transactions.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, schema.Transactions.Name, id, amqp.OpDelete)
	return nil
}

// TransactionDetail is a transaction with its account and category loaded.
type TransactionDetail struct {
	core.Transaction
	Account  core.Account  `json:"account"`
	Category core.Category `json:"category"`
}

func (s *LedgerService) GetTransactionDetail(ctx context.Context, id int64) (TransactionDetail, error) {
	tx, err := s.store.Transactions.Get(ctx, id)
	if err != nil {
		return TransactionDetail{}, err
	}
	account, err := s.store.Transactions.Account(ctx, tx)
	if err != nil {
		return TransactionDetail{}, fmt.Errorf("load account: %w", err)
	}
	category, err := s.store.Transactions.Category(ctx, tx)
	if err != nil {
		return TransactionDetail{}, fmt.Errorf("load category: %w", err)
	}
	return TransactionDetail{Transaction: tx, Account: account, Category: category}, nil
}

// Budgets

func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	created, err := s.store.Budgets.Create(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.publish(ctx, schema.Budgets.Name, created.ID, amqp.OpCreate)
	return created, nil
}

func (s *LedgerService) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.Budgets.Get(ctx, id)
}

func (s *LedgerService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.store.Budgets.List(ctx)
}

func (s *LedgerService) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	updated, err := s.store.Budgets.Update(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.publish(ctx, schema.Budgets.Name, updated.ID, amqp.OpUpdate)
	return updated, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.store.Budgets.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, schema.Budgets.Name, id, amqp.OpDelete)
	return nil
}

// BudgetCategory returns the category a budget is limited to, or nil for an
// overall budget.
func (s *LedgerService) BudgetCategory(ctx context.Context, id int64) (*core.Category, error) {
	b, err := s.store.Budgets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.Budgets.Category(ctx, b)
}

// Goals

func (s *LedgerService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.Goals.Create(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}
	s.publish(ctx, schema.Goals.Name, created.ID, amqp.OpCreate)
	return created, nil
}

func (s *LedgerService) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	return s.store.Goals.Get(ctx, id)
}

func (s *LedgerService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.store.Goals.List(ctx)
}

func (s *LedgerService) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	updated, err := s.store.Goals.Update(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}
	s.publish(ctx, schema.Goals.Name, updated.ID, amqp.OpUpdate)
	return updated, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id int64) error {
	if err := s.store.Goals.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, schema.Goals.Name, id, amqp.OpDelete)
	return nil
}

// Close releases the registered resources, continuing past failures.
func (s *LedgerService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
