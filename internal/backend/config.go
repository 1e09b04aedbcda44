package backend

import (
	"errors"
	"fmt"

	"ledger/internal/config"
)

// FromAppConfig picks the sheets exporter when a spreadsheet is configured
// and the memory exporter otherwise.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	typ := MemoryExporter
	if appConfig.SheetsEnabled() {
		typ = SheetsExporter
	}
	return Config{
		Type:                     typ,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}, nil
}

// Validate validates the exporter configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid exporter type: %s", c.Type)
	}

	if c.Type == SheetsExporter {
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets exporter")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return errors.New("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for sheets exporter")
		}
	}
	return nil
}

// ExporterTypes returns all valid exporter types
func ExporterTypes() []ExporterType {
	return []ExporterType{SheetsExporter, MemoryExporter}
}
