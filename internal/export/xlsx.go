package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

const (
	sheetTransactions = "Transactions"
	sheetSummary      = "Summary"
)

// WriteXLSX writes a workbook with a Transactions sheet and a Summary sheet
// of active expense totals per category.
func WriteXLSX(w io.Writer, txns []model.Transaction, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := setRow(f, sheetTransactions, 1, toAny(Header)); err != nil {
		return err
	}
	for i, t := range txns {
		cells := toAny(row(t, loc))
		cells[3] = t.Amount.InexactFloat64()
		if err := setRow(f, sheetTransactions, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetTransactions, "E", "E", 30); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}
	if err := setRow(f, sheetSummary, 1, []any{"category", "total"}); err != nil {
		return err
	}
	var active []model.Transaction
	for _, t := range txns {
		if t.Active() {
			active = append(active, t)
		}
	}
	totals := period.SortedCategories(period.GroupByCategory(period.OfType(active, model.TxExpense)))
	for i, ct := range totals {
		if err := setRow(f, sheetSummary, i+2, []any{ct.Category, ct.Amount.InexactFloat64()}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
