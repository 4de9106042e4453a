// Package export renders submissions as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/kosarica/quote-service/internal/submission"
)

// Sheet names of an exported workbook.
const (
	SheetSummary = "Summary"
	SheetQuotes  = "Quotes"
	SheetHistory = "History"
)

var (
	quoteHeader   = []any{"Selection", "Service", "Package", "Base", "Size", "Adjustments", "Surcharge", "Total", "Requires bid", "Selected"}
	historyHeader = []any{"Sequence", "Edited at", "Service", "Old total", "New total", "Old package", "New package", "Changed", "Added", "Removed"}
)

// WriteWorkbook writes sub and its edit history as an xlsx workbook to w.
func WriteWorkbook(w io.Writer, sub *submission.Submission, history []submission.EditHistoryEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetQuotes, SheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeSummary(f, sub, bold); err != nil {
		return err
	}
	if err := writeQuotes(f, sub, bold); err != nil {
		return err
	}
	if err := writeHistory(f, history, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, sub *submission.Submission, bold int) error {
	t := sub.Totals
	rows := [][]any{
		{"Submission", sub.ID},
		{"Customer", sub.CustomerName},
		{"Email", sub.CustomerEmail},
		{"Status", string(sub.Status)},
		{"Coupon", sub.CouponCode},
		{"Requires bid", sub.RequiresBid},
		{"Base price", money(t.TotalBasePrice)},
		{"Adjustments", money(t.TotalAdjustments)},
		{"Surcharges", money(t.TotalSurcharges)},
		{"Add-ons", money(t.TotalAddOnsPrice)},
		{"Discount", money(t.DiscountedAmount)},
		{"Final total", money(t.FinalTotal)},
		{"Edits", sub.EditCount},
	}
	if sub.OriginalTotal != nil {
		rows = append(rows, []any{"Original total", money(*sub.OriginalTotal)})
	}
	if err := writeRows(f, SheetSummary, 1, rows); err != nil {
		return err
	}
	return f.SetColStyle(SheetSummary, "A", bold)
}

func writeQuotes(f *excelize.File, sub *submission.Submission, bold int) error {
	rows := [][]any{quoteHeader}
	for _, sel := range sub.Selections {
		for _, q := range sel.Quotes {
			rows = append(rows, []any{
				sel.ID,
				sel.ServiceID,
				q.PackageName,
				money(q.BasePrice),
				money(q.SizePrice),
				money(q.QuestionAdjustments),
				money(q.SurchargeAmount),
				money(q.TotalPrice),
				q.RequiresBid,
				q.PackageID == sel.SelectedPackageID,
			})
		}
	}
	if err := writeRows(f, SheetQuotes, 1, rows); err != nil {
		return err
	}
	return f.SetRowStyle(SheetQuotes, 1, 1, bold)
}

func writeHistory(f *excelize.File, history []submission.EditHistoryEntry, bold int) error {
	rows := [][]any{historyHeader}
	for _, e := range history {
		rows = append(rows, []any{
			e.Sequence,
			e.EditedAt.UTC().Format("2006-01-02 15:04:05"),
			e.ServiceID,
			money(e.OldFinalTotal),
			money(e.NewFinalTotal),
			e.OldPackageID,
			e.NewPackageID,
			strings.Join(e.Changed, ", "),
			strings.Join(e.Added, ", "),
			strings.Join(e.Removed, ", "),
		})
	}
	if err := writeRows(f, SheetHistory, 1, rows); err != nil {
		return err
	}
	return f.SetRowStyle(SheetHistory, 1, 1, bold)
}

func writeRows(f *excelize.File, sheet string, first int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, first+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, first+i, err)
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
