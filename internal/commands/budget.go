package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/budget"
	"github.com/cleared-dev/pocket/internal/model"
)

func newBudgetCommand(g *globals) *cobra.Command {
	budgetCmd := &cobra.Command{
		Use:   "budget",
		Short: "Show and configure the monthly budget",
	}
	budgetCmd.AddCommand(
		newBudgetShowCommand(g),
		newBudgetSetCommand(g),
		newBudgetCategoryCommand(g),
		newBudgetRolloverCommand(g),
		newBudgetAlertsCommand(g),
	)
	return budgetCmd
}

func newBudgetShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show this month's spending against the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				return writeBudget(cmd.OutOrStdout(), a)
			})
		},
	}
}

func writeBudget(out io.Writer, a *app.App) error {
	txns := a.Ledger.All()
	cfg := a.Budget.Config()
	p := a.Budget.Progress(txns)

	tw := newTable(out)
	fmt.Fprintf(tw, "Monthly budget\t%s\n", money(p.Budget))
	fmt.Fprintf(tw, "Spent\t%s\n", money(p.Spent))
	fmt.Fprintf(tw, "Remaining\t%s\n", money(p.Remaining))
	fmt.Fprintf(tw, "Used\t%s%%\n", p.Percentage.StringFixed(1))
	fmt.Fprintf(tw, "Per day left\t%s\n", money(a.Budget.DailyBudgetRemaining(txns)))
	if cfg.RolloverEnabled {
		fmt.Fprintf(tw, "With rollover\t%s\n", money(a.Budget.EffectiveMonthlyBudget(txns)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(cfg.CategoryBudgets) > 0 {
		names := make([]string, 0, len(cfg.CategoryBudgets))
		for name := range cfg.CategoryBudgets {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(out)
		tw = newTable(out)
		fmt.Fprintln(tw, "CATEGORY\tBUDGET\tSPENT\tREMAINING\tUSED")
		for _, name := range names {
			cp := a.Budget.CategoryProgress(name, txns)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\n", name, money(cp.Budget), money(cp.Spent), money(cp.Remaining), cp.Percentage.StringFixed(1))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	alerts := a.Budget.Alerts(txns)
	if len(alerts) > 0 {
		fmt.Fprintln(out)
	}
	for _, al := range alerts {
		fmt.Fprintln(out, describeAlert(al))
	}
	return nil
}

func describeAlert(al budget.Alert) string {
	scope := "Monthly budget"
	if al.Category != "" {
		scope = al.Category + " budget"
	}
	if al.Level == budget.LevelOver {
		return fmt.Sprintf("%s exceeded by %s", scope, money(al.Remaining.Neg()))
	}
	return fmt.Sprintf("%s nearly used: %s of %s left", scope, money(al.Remaining), money(al.Budget))
}

func newBudgetSetCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "set <amount>",
		Short: "Set the monthly budget (0 disables it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				amt, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				if err := a.Budget.SetMonthlyBudget(amt); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Monthly budget set to %s\n", money(amt))
				return a.Record(ctx, "budget set: "+money(amt), activitylog.Entry{Action: "set", Kind: "budget", Details: money(amt)})
			})
		},
	}
}

func newBudgetCategoryCommand(g *globals) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "category <name> [amount]",
		Short: "Set or remove a category budget",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				name := args[0]
				if remove {
					if err := a.Budget.RemoveCategoryBudget(name); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s budget\n", name)
					return a.Record(ctx, "budget category remove: "+name, activitylog.Entry{Action: "remove", Kind: "category_budget", TargetID: name})
				}
				if len(args) < 2 {
					return model.ValidationError{Field: "amount", Reason: "required unless --remove"}
				}
				if !a.Categories.Contains(name) {
					return model.NotFoundError{Kind: "category", ID: name}
				}
				amt, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				if err := a.Budget.SetCategoryBudget(name, amt); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s budget set to %s\n", name, money(amt))
				return a.Record(ctx, "budget category: "+name, activitylog.Entry{Action: "set", Kind: "category_budget", TargetID: name, Details: money(amt)})
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the category budget")
	return cmd
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, model.ValidationError{Reason: fmt.Sprintf("want on or off, got %q", s)}
}

func newBudgetRolloverCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover <on|off>",
		Short: "Carry last month's unspent budget into this month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				on, err := parseSwitch(args[0])
				if err != nil {
					return err
				}
				if err := a.Budget.SetRolloverEnabled(on); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rollover %s\n", args[0])
				return a.Record(ctx, "budget rollover: "+args[0], activitylog.Entry{Action: "set", Kind: "rollover", Details: args[0]})
			})
		},
	}
}

func newBudgetAlertsCommand(g *globals) *cobra.Command {
	var threshold string
	cmd := &cobra.Command{
		Use:   "alerts <on|off>",
		Short: "Enable or disable budget alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				on, err := parseSwitch(args[0])
				if err != nil {
					return err
				}
				if threshold != "" {
					th, err := parseAmount(threshold)
					if err != nil {
						return err
					}
					if err := a.Budget.SetAlertThreshold(th); err != nil {
						return err
					}
				}
				if err := a.Budget.SetAlertsEnabled(on); err != nil {
					return err
				}
				cfg := a.Budget.Config()
				fmt.Fprintf(cmd.OutOrStdout(), "Alerts %s at %s of budget\n", args[0], cfg.AlertThreshold.String())
				return a.Record(ctx, "budget alerts: "+args[0], activitylog.Entry{Action: "set", Kind: "alerts", Details: args[0] + " " + cfg.AlertThreshold.String()})
			})
		},
	}
	cmd.Flags().StringVar(&threshold, "threshold", "", "fraction of the budget that triggers a near alert, e.g. 0.8")
	return cmd
}
