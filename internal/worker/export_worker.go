// Package worker exports ledger transactions to a spreadsheet in response to
// change messages.
package worker

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/repository"
	"ledger/internal/schema"
	"ledger/internal/services"
	"ledger/internal/sheets"
)

// Source reads the transactions being exported.
type Source interface {
	GetTransactionDetail(ctx context.Context, id int64) (services.TransactionDetail, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]core.Transaction, error)
}

// ExportWorker mirrors transaction changes into a sheets.TransactionWriter.
type ExportWorker struct {
	source  Source
	writer  sheets.TransactionWriter
	deleter sheets.TransactionDeleter
	logger  *log.Logger
}

// NewExportWorker returns a worker writing to w. Deletions are propagated
// only when w also implements sheets.TransactionDeleter.
func NewExportWorker(source Source, w sheets.TransactionWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	d, _ := w.(sheets.TransactionDeleter)
	return &ExportWorker{
		source:  source,
		writer:  w,
		deleter: d,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange processes one change message. Messages for other tables are
// acknowledged without work.
func (w *ExportWorker) HandleChange(ctx context.Context, msg amqp.ChangeMessage) error {
	if msg.Table != schema.Transactions.Name {
		w.logger.DebugContext(ctx, "Ignoring change", log.FieldTable, msg.Table, log.FieldID, msg.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change",
		log.FieldID, msg.ID,
		log.FieldOperation, msg.Op)

	switch msg.Op {
	case amqp.OpDelete:
		// The row is gone, and its date with it.
		return w.remove(ctx, msg.ID)
	case amqp.OpCreate, amqp.OpUpdate:
		detail, err := w.source.GetTransactionDetail(ctx, msg.ID)
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted before the message was consumed; the delete message follows.
			w.logger.WarnContext(ctx, "Transaction vanished before export", log.FieldID, msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", msg.ID, err)
		}
		row := sheets.NewRow(detail.Transaction, detail.Account, detail.Category)
		if msg.Op == amqp.OpUpdate {
			// Append skips ids already present, so the stale row goes first.
			// The old date may be in another year.
			if err := w.remove(ctx, msg.ID); err != nil {
				return err
			}
		}
		return w.export(ctx, row)
	default:
		return fmt.Errorf("unknown change operation %q", msg.Op)
	}
}

// Backfill exports every stored transaction. Rows already in the sheet are
// left alone, so it is safe to run at each startup.
func (w *ExportWorker) Backfill(ctx context.Context) error {
	txs, err := w.source.ListTransactions(ctx, repository.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	var exported, failed int
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, err := w.source.GetTransactionDetail(ctx, tx.ID)
		if err == nil {
			err = w.export(ctx, sheets.NewRow(d.Transaction, d.Account, d.Category))
		}
		if err != nil {
			w.logger.ErrorContext(ctx, "Backfill export failed", log.FieldID, tx.ID, log.FieldError, err)
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		"total", len(txs),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, row sheets.Row) error {
	ref, err := w.writer.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", row.TransactionID, err)
	}
	w.logger.InfoContext(ctx, "Transaction exported",
		log.FieldID, row.TransactionID,
		log.FieldOperation, log.OpExport,
		"ref", ref)
	return nil
}

// remove drops the transaction from every year's sheet.
func (w *ExportWorker) remove(ctx context.Context, id int64) error {
	if w.deleter == nil {
		w.logger.WarnContext(ctx, "Exporter cannot delete rows, skipping", log.FieldID, id)
		return nil
	}
	if err := w.deleter.Remove(ctx, id, 0); err != nil {
		return fmt.Errorf("remove exported transaction %d: %w", id, err)
	}
	return nil
}
