// Package backend selects where the worker exports transactions.
package backend

import (
	"context"

	"ledger/internal/sheets"
)

// Exporter receives exported transactions and can remove them again.
type Exporter interface {
	sheets.TransactionWriter
	sheets.TransactionDeleter
}

// Factory creates exporters based on configuration
type Factory interface {
	CreateExporter(ctx context.Context, config Config) (Exporter, error)
}

// Config holds configuration for exporter creation
type Config struct {
	Type ExporterType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// ExporterType represents the type of exporter
type ExporterType string

const (
	SheetsExporter ExporterType = "sheets"
	MemoryExporter ExporterType = "memory"
)

// String implements fmt.Stringer
func (t ExporterType) String() string {
	return string(t)
}

// IsValid returns true if the exporter type is valid
func (t ExporterType) IsValid() bool {
	switch t {
	case SheetsExporter, MemoryExporter:
		return true
	default:
		return false
	}
}
