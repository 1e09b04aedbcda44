// Package google exports ledger transactions to a Google spreadsheet, one
// sheet per year.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/log"
	"ledger/internal/sheets"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID string
	// SheetName is the base sheet name; the row's year is prefixed to it.
	SheetName string
	// CredentialsJSON wins over CredentialsFile when both are set.
	CredentialsJSON string
	CredentialsFile string
}

const DefaultSheetName = "Ledger"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var (
	_ sheets.TransactionWriter  = (*Client)(nil)
	_ sheets.TransactionDeleter = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     strings.TrimSpace(sheetName),
		logger:        logger.WithComponent(log.ComponentSheets),
		sheetIDs:      make(map[string]int64),
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// SheetName returns the sheet rows of year are written to. Year 0 means the
// current year.
func (c *Client) SheetName(year int) string {
	if year <= 0 {
		year = time.Now().Year()
	}
	return yearPrefixedName(c.sheetBase, year)
}

// Append writes r to its year's sheet, creating the sheet with a header row
// on first use. A transaction already present in the sheet is not written
// again, so redelivered messages are harmless.
func (c *Client) Append(ctx context.Context, r sheets.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := c.SheetName(r.Year())
	if _, err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	row, err := c.findRow(ctx, sheet, r.TransactionID)
	if err != nil {
		return "", err
	}
	if row > 0 {
		c.logger.InfoContext(ctx, "Transaction already exported",
			log.FieldID, r.TransactionID,
			"sheet", sheet,
			"row", row)
		return rowRef(sheet, row), nil
	}

	rng := fmt.Sprintf("%s!A:%s", quoteSheet(sheet), sheets.IDColumn)
	vr := &gsheet.ValueRange{Values: [][]any{r.Values()}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Transaction exported",
		log.FieldID, r.TransactionID,
		"range", ref,
		"amount", r.Amount.StringFixed(2))
	return ref, nil
}

// Remove deletes the row exported for transactionID from year's sheet. Year
// 0 searches every year sheet, for callers that no longer know the date the
// row was exported under. Missing sheets and rows are not an error.
func (c *Client) Remove(ctx context.Context, transactionID int64, year int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	targets, err := c.yearSheets(ctx, year)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if err := c.removeFrom(ctx, t, transactionID); err != nil {
			return err
		}
	}
	return nil
}

type sheetRef struct {
	title string
	id    int64
}

// yearSheets returns the existing sheets for year, or every year sheet of
// this client when year is 0, ordered by title.
func (c *Client) yearSheets(ctx context.Context, year int) ([]sheetRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadSheetsLocked(ctx); err != nil {
		return nil, err
	}

	var out []sheetRef
	for title, id := range c.sheetIDs {
		y, ok := sheetYear(title)
		if !ok || yearPrefixedName(c.sheetBase, y) != title {
			continue
		}
		if year > 0 && title != c.SheetName(year) {
			continue
		}
		out = append(out, sheetRef{title: title, id: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].title < out[j].title })
	return out, nil
}

func (c *Client) removeFrom(ctx context.Context, sheet sheetRef, transactionID int64) error {
	row, err := c.findRow(ctx, sheet.title, transactionID)
	if err != nil || row == 0 {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheet.id,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, sheet.title, err)
	}
	c.logger.InfoContext(ctx, "Exported transaction removed", log.FieldID, transactionID, "sheet", sheet.title)
	return nil
}

// findRow returns the 1-based row holding transactionID, or 0.
func (c *Client) findRow(ctx context.Context, sheet string, transactionID int64) (int, error) {
	rng := fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), sheets.IDColumn, sheets.IDColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseIDColumn(resp.Values)[transactionID], nil
}

// ensureSheet returns the numeric id of sheet, adding it with a header row
// when the spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, sheet string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.sheetIDs[sheet]; ok {
		return id, nil
	}

	if err := c.loadSheetsLocked(ctx); err != nil {
		return 0, err
	}
	if id, ok := c.sheetIDs[sheet]; ok {
		return id, nil
	}

	add := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, add).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}

	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	rng := fmt.Sprintf("%s!A1:%s1", quoteSheet(sheet), sheets.IDColumn)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("write header to %s: %w", sheet, err)
	}

	c.logger.InfoContext(ctx, "Sheet created", "sheet", sheet, "sheet_id", id)
	c.sheetIDs[sheet] = id
	return id, nil
}

// loadSheetsLocked refreshes the title to sheet id cache. c.mu must be held.
func (c *Client) loadSheetsLocked(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return nil
}
