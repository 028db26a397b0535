package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

func newReportCommand(g *globals) *cobra.Command {
	var month string
	var allDays bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly totals, category breakdown and daily spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				r, err := parseMonth(month, a.Now())
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), a.Ledger.Incomes(), a.Ledger.Expenses(), r, a.Location, allDays)
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current)")
	cmd.Flags().BoolVar(&allDays, "all-days", false, "include days without spending")
	return cmd
}

func writeReport(out io.Writer, incomes, expenses []model.Transaction, r period.Range, loc *time.Location, allDays bool) error {
	expenses = period.InRange(expenses, r)
	income := period.Total(period.InRange(incomes, r))
	spent := period.Total(expenses)

	fmt.Fprintf(out, "%s\n\n", r.Start.In(loc).Format("January 2006"))
	tw := newTable(out)
	fmt.Fprintf(tw, "Income\t%s\n", money(income))
	fmt.Fprintf(tw, "Expenses\t%s\n", money(spent))
	fmt.Fprintf(tw, "Net\t%s\n", money(income.Sub(spent)))
	if err := tw.Flush(); err != nil {
		return err
	}

	if cats := period.SortedCategories(period.GroupByCategory(expenses)); len(cats) > 0 {
		fmt.Fprintln(out)
		tw = newTable(out)
		fmt.Fprintln(tw, "CATEGORY\tSPENT\tSHARE")
		for _, c := range cats {
			share := c.Amount.Div(spent).Mul(hundred)
			fmt.Fprintf(tw, "%s\t%s\t%s%%\n", c.Category, money(c.Amount), share.StringFixed(1))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	start := r.Start.In(loc)
	days := period.DailyTotals(expenses, start.Year(), start.Month(), loc)
	fmt.Fprintln(out)
	tw = newTable(out)
	fmt.Fprintln(tw, "DAY\tSPENT")
	for _, d := range days {
		if d.Amount.IsZero() && !allDays {
			continue
		}
		fmt.Fprintf(tw, "%02d\t%s\n", d.Day, money(d.Amount))
	}
	return tw.Flush()
}
