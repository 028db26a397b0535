// Package export writes transactions as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/pocket/internal/model"
)

// Formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Header is the column order shared by both formats.
var Header = []string{
	"id", "date", "type", "amount", "title", "category", "subcategory",
	"account", "from_account", "to_account", "payment_method", "merchant",
	"tags", "notes", "recurring_id",
}

func row(t model.Transaction, loc *time.Location) []string {
	return []string{
		t.ID,
		t.Date.In(loc).Format(time.DateOnly),
		string(t.Type),
		t.Amount.StringFixed(2),
		t.Title,
		t.Category,
		t.Subcategory,
		t.Account,
		t.FromAccount,
		t.ToAccount,
		t.PaymentMethod,
		t.Merchant,
		strings.Join(t.Tags, ";"),
		t.Notes,
		t.RecurringID,
	}
}

// Write dispatches on format.
func Write(w io.Writer, format string, txns []model.Transaction, loc *time.Location) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, txns, loc)
	case FormatXLSX:
		return WriteXLSX(w, txns, loc)
	default:
		return model.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown export format %q", format)}
	}
}

// WriteCSV writes a header row and one row per transaction.
func WriteCSV(w io.Writer, txns []model.Transaction, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range txns {
		if err := cw.Write(row(t, loc)); err != nil {
			return fmt.Errorf("writing %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
