package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

const monthLayout = "2006-01"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, model.ValidationError{Field: "amount", Reason: fmt.Sprintf("not a number: %q", s)}
	}
	return d, nil
}

// parseDate reads YYYY-MM-DD as midday in loc, so the date survives small
// timezone shifts.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, model.ValidationError{Field: "date", Reason: fmt.Sprintf("want YYYY-MM-DD, got %q", s)}
	}
	return d.Add(12 * time.Hour), nil
}

// parseMonth reads YYYY-MM; empty means the month containing now.
func parseMonth(s string, now time.Time) (period.Range, error) {
	if s == "" {
		return period.Month(now), nil
	}
	m, err := time.ParseInLocation(monthLayout, s, now.Location())
	if err != nil {
		return period.Range{}, model.ValidationError{Field: "month", Reason: fmt.Sprintf("want YYYY-MM, got %q", s)}
	}
	return period.Month(m), nil
}

func writeTransactions(w io.Writer, txns []model.Transaction, loc *time.Location) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tACCOUNT\tTITLE")
	for _, t := range txns {
		account := t.Account
		if t.Type == model.TxTransfer {
			account = t.FromAccount + " -> " + t.ToAccount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id.Short(t.ID), t.Date.In(loc).Format(time.DateOnly), t.Type, money(t.Amount),
			t.Category, account, t.Title)
	}
	return tw.Flush()
}

var hundred = decimal.NewFromInt(100)
