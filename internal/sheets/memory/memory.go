// Package memory is an in-process sheets adapter, used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ledger/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var (
	_ sheets.TransactionWriter  = (*Store)(nil)
	_ sheets.TransactionDeleter = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Append stores r unless a row for the same transaction exists in r's year.
// Like the spreadsheet adapter, each year is a separate sheet, so the same
// transaction under another year is a separate row.
func (s *Store) Append(_ context.Context, r sheets.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rows {
		if existing.TransactionID == r.TransactionID && existing.Year() == r.Year() {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	s.rows = append(s.rows, r)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Remove drops the transaction's row from year, or from every year when year
// is 0.
func (s *Store) Remove(_ context.Context, transactionID int64, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.TransactionID == transactionID && (year == 0 || r.Year() == year) {
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return nil
}

// Rows returns a copy of the stored rows in insertion order.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
