package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/proxy"
	"ledger/internal/repository"
	"ledger/internal/schema"
	"ledger/internal/services"
	"ledger/internal/sheets"
	"ledger/internal/sheets/memory"
	"ledger/internal/storage"
)

var _ Source = (*services.LedgerService)(nil)

func newLedger(t *testing.T) (*services.LedgerService, core.Transaction) {
	t.Helper()
	return newLedgerDated(t, "2025-03-14")
}

func newLedgerDated(t *testing.T, date string) (*services.LedgerService, core.Transaction) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "worker.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := services.NewLedgerService(repository.New(proxy.New(db)))

	acc, err := svc.CreateAccount(ctx, core.Account{Name: "Checking", Type: core.Asset, Currency: "EUR"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cat, err := svc.CreateCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	tx, err := svc.CreateTransaction(ctx, core.Transaction{
		Amount:     -42.5,
		Date:       date,
		Payee:      "Market",
		AccountID:  acc.ID,
		CategoryID: cat.ID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return svc, tx
}

func TestHandleChangeExportsTransaction(t *testing.T) {
	svc, tx := newLedger(t)
	out := memory.New()
	w := NewExportWorker(svc, out, nil)
	ctx := context.Background()

	msg := amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpCreate)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	// Redelivery must not duplicate the row.
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange again: %v", err)
	}

	rows := out.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.TransactionID != tx.ID || r.Account != "Checking" || r.Category != "Groceries" ||
		r.Currency != "EUR" || r.Amount.StringFixed(2) != "-42.50" || r.Year() != 2025 {
		t.Fatalf("unexpected row %+v", r)
	}
}

func TestHandleChangeUpdateReplacesRow(t *testing.T) {
	svc, tx := newLedger(t)
	out := memory.New()
	w := NewExportWorker(svc, out, nil)
	ctx := context.Background()

	if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpCreate)); err != nil {
		t.Fatalf("create: %v", err)
	}
	tx.Amount = -50
	if _, err := svc.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpUpdate)); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows := out.Rows()
	if len(rows) != 1 || rows[0].Amount.StringFixed(2) != "-50.00" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestHandleChangeDeleteRemovesRow(t *testing.T) {
	svc, tx := newLedger(t)
	out := memory.New()
	w := NewExportWorker(svc, out, nil)
	ctx := context.Background()

	if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpCreate)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpDelete)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := len(out.Rows()); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestHandleChangeUpdateMovesRowAcrossYears(t *testing.T) {
	svc, tx := newLedger(t)
	out := memory.New()
	w := NewExportWorker(svc, out, nil)
	ctx := context.Background()

	if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpCreate)); err != nil {
		t.Fatalf("create: %v", err)
	}
	tx.Date = "2024-12-31"
	if _, err := svc.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpUpdate)); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows := out.Rows()
	if len(rows) != 1 || rows[0].Year() != 2024 {
		t.Fatalf("expected the transaction only in the 2024 sheet, got %+v", rows)
	}
}

func TestHandleChangeDeleteRemovesPastYearRow(t *testing.T) {
	tests := []string{"2019-06-01", "2024-12-31", "2031-01-01"}
	for _, date := range tests {
		t.Run(date, func(t *testing.T) {
			svc, tx := newLedgerDated(t, date)
			out := memory.New()
			w := NewExportWorker(svc, out, nil)
			ctx := context.Background()

			if err := w.Backfill(ctx); err != nil {
				t.Fatalf("Backfill: %v", err)
			}
			if n := len(out.Rows()); n != 1 {
				t.Fatalf("expected 1 exported row, got %d", n)
			}
			if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
				t.Fatalf("DeleteTransaction: %v", err)
			}
			if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpDelete)); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if rows := out.Rows(); len(rows) != 0 {
				t.Fatalf("deleted transaction still exported: %+v", rows)
			}
		})
	}
}

// yearRecorder records the year each removal targets.
type yearRecorder struct {
	appendOnly
	years []int
}

func (y *yearRecorder) Remove(_ context.Context, _ int64, year int) error {
	y.years = append(y.years, year)
	return nil
}

func TestHandleChangeRemovesFromEveryYear(t *testing.T) {
	svc, tx := newLedger(t)
	out := &yearRecorder{}
	w := NewExportWorker(svc, out, nil)
	ctx := context.Background()

	for _, op := range []string{amqp.OpUpdate, amqp.OpDelete} {
		if err := w.HandleChange(ctx, amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, op)); err != nil {
			t.Fatalf("%s: %v", op, err)
		}
	}
	if len(out.years) != 2 || out.years[0] != 0 || out.years[1] != 0 {
		t.Fatalf("removals targeted years %v, want [0 0]", out.years)
	}
}

func TestHandleChangeSkipsVanishedAndForeignTables(t *testing.T) {
	svc, tx := newLedger(t)
	out := memory.New()
	w := NewExportWorker(svc, out, nil)
	ctx := context.Background()

	tests := []amqp.ChangeMessage{
		amqp.NewChangeMessage(schema.Transactions.Name, tx.ID+100, amqp.OpCreate),
		amqp.NewChangeMessage(schema.Accounts.Name, 1, amqp.OpUpdate),
		amqp.NewChangeMessage(schema.Goals.Name, 1, amqp.OpDelete),
	}
	for _, msg := range tests {
		if err := w.HandleChange(ctx, msg); err != nil {
			t.Errorf("HandleChange(%+v): %v", msg, err)
		}
	}
	if n := len(out.Rows()); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

// appendOnly has no Remove, so deletions are skipped.
type appendOnly struct {
	rows []sheets.Row
	err  error
}

func (a *appendOnly) Append(_ context.Context, r sheets.Row) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.rows = append(a.rows, r)
	return "ok", nil
}

func TestHandleChangeWithoutDeleter(t *testing.T) {
	svc, tx := newLedger(t)
	out := &appendOnly{}
	w := NewExportWorker(svc, out, nil)

	if err := w.HandleChange(context.Background(), amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpDelete)); err != nil {
		t.Fatalf("delete without deleter: %v", err)
	}
}

func TestHandleChangeWriterErrorIsReturned(t *testing.T) {
	svc, tx := newLedger(t)
	boom := errors.New("quota exceeded")
	w := NewExportWorker(svc, &appendOnly{err: boom}, nil)

	err := w.HandleChange(context.Background(), amqp.NewChangeMessage(schema.Transactions.Name, tx.ID, amqp.OpCreate))
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestBackfill(t *testing.T) {
	svc, tx := newLedger(t)
	ctx := context.Background()
	second := tx
	second.ID = 0
	second.Amount = 10
	if _, err := svc.CreateTransaction(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	out := memory.New()
	w := NewExportWorker(svc, out, nil)
	if err := w.Backfill(ctx); err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if err := w.Backfill(ctx); err != nil {
		t.Fatalf("second Backfill: %v", err)
	}
	if n := len(out.Rows()); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}
