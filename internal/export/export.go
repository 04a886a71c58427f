// Package export flattens the ledger into rows for spreadsheet consumers.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"receipts/internal/core"
)

const (
	ReceiptsSheet = "Receipts"
	SummarySheet  = "Summary"

	// ContentType is the MIME type of WriteXLSX output.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header returns the column titles matching Row.
func Header() []string {
	return []string{
		"Date",
		"Receipt No",
		"Name",
		"Item Description",
		"Customer Request",
		"Quantity",
		"Price",
		"Discount",
		"Amount",
		"Total Amount",
		"Advance",
		"Balance",
		"Status",
	}
}

// Row projects r onto the Header columns. Money is in rupees; a missing
// advance or balance is an empty cell.
func Row(r core.Receipt) []any {
	return []any{
		r.Date,
		r.ReceiptNo,
		r.Name,
		r.ItemDescription,
		r.CustomerRequest,
		r.Quantity,
		r.Price.Float(),
		r.Discount.Float(),
		r.Amount.Float(),
		r.TotalAmount.Float(),
		optional(r.Advance),
		optional(r.Balance),
		string(r.Status),
	}
}

// Rows returns the header followed by one row per record.
func Rows(records []core.Receipt) [][]any {
	out := make([][]any, 0, len(records)+1)
	header := make([]any, 0, len(Header()))
	for _, h := range Header() {
		header = append(header, h)
	}
	out = append(out, header)
	for _, r := range records {
		out = append(out, Row(r))
	}
	return out
}

func optional(m *core.Money) any {
	if m == nil {
		return ""
	}
	return m.Float()
}

// Filename is the download name for a workbook exported on t.
func Filename(t time.Time) string {
	return fmt.Sprintf("receipts_%s.xlsx", t.Format(core.DateLayout))
}

// Workbook builds a workbook with the receipt rows and a summary sheet.
// The file is closed when building fails.
func Workbook(records []core.Receipt) (_ *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	if err := f.SetSheetName("Sheet1", ReceiptsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range Rows(records) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ReceiptsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	s := core.Summarize(records)
	summary := [][]any{
		{"Total Revenue", s.TotalRevenue.Float()},
		{"Total Discount", s.TotalDiscount.Float()},
		{"Total Cancelled", s.TotalCancelled.Float()},
		{"Active Receipts", s.ActiveReceiptCount},
		{"Cancelled Receipts", s.CancelledReceiptCount},
		{"Average Transaction", core.AverageTransaction(s).Float()},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return f, nil
}

// WriteXLSX streams the workbook for records to w.
func WriteXLSX(w io.Writer, records []core.Receipt) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook for records to path.
func SaveXLSX(path string, records []core.Receipt) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
