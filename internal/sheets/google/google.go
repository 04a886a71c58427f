package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"receipts/internal/core"
	"receipts/internal/export"
	ports "receipts/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// valueInputOption keeps cell values as written; receipt numbers such as
// "AB_RNC - 01" must not be reinterpreted by the sheet.
const valueInputOption = "RAW"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.LedgerMirror = (*Client)(nil)

type Options struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
// When neither credential option is set GOOGLE_APPLICATION_CREDENTIALS is
// used as the credentials file.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = export.ReceiptsSheet
	}

	credentialsJSON, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Mirror clears the receipt columns and writes the header plus one row per
// record starting at A1.
func (c *Client) Mirror(ctx context.Context, records []core.Receipt) error {
	clearRange := columnsRange(c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	vr := valueRange(c.sheetName, records)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, vr.Range, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", vr.Range, err)
	}

	slog.InfoContext(ctx, "Mirrored ledger to Google Sheets",
		"sheet", c.sheetName,
		"rows", len(records))
	return nil
}

// valueRange builds the update payload for records anchored at A1 of sheet.
func valueRange(sheet string, records []core.Receipt) *gsheet.ValueRange {
	rows := export.Rows(records)
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	return &gsheet.ValueRange{
		Range:          startRange(sheet),
		MajorDimension: "ROWS",
		Values:         values,
	}
}

// columnsRange covers every export column of sheet: 'Receipts'!A:M.
func columnsRange(sheet string) string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(sheet), columnLetter(len(export.Header())))
}

// startRange is the top-left cell of sheet.
func startRange(sheet string) string {
	return quoteSheet(sheet) + "!A1"
}

// quoteSheet wraps a sheet name in single quotes, doubling embedded quotes,
// as A1 notation requires for names with spaces or punctuation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnLetter converts a 1-based column index to its A1 letters.
func columnLetter(n int) string {
	if n < 1 {
		return "A"
	}
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
