package backend

import (
	"context"
	"fmt"

	"ledger/internal/log"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// newSheets is replaced in tests.
	newSheets func(ctx context.Context, cfg gsheet.Config, logger *log.Logger) (*gsheet.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:    logger.WithComponent(log.ComponentWorker),
		newSheets: gsheet.New,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (Exporter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsExporter:
		client, err := f.newSheets(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets exporter", "spreadsheet_id", config.GoogleSpreadsheetID)
		return client, nil
	case MemoryExporter:
		f.logger.InfoContext(ctx, "Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", config.Type)
	}
}
