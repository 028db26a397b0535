package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/recurring"
)

func newRecurringCommand(g *globals) *cobra.Command {
	recurringCmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring transactions",
	}
	recurringCmd.AddCommand(
		newRecurringAddCommand(g),
		newRecurringListCommand(g),
		newRecurringRemoveCommand(g),
		newRecurringActiveCommand(g, "pause", "Pause a rule", false),
		newRecurringActiveCommand(g, "resume", "Resume a paused rule", true),
		newRecurringProcessCommand(g),
	)
	return recurringCmd
}

func newRecurringAddCommand(g *globals) *cobra.Command {
	var typ, title, category, account, payment, notes, frequency, start string
	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Add a recurring rule; it first fires one period from now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				amt, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				txType, err := model.ParseTxType(typ)
				if err != nil {
					return err
				}
				if category != "" && !a.Categories.Contains(category) {
					return model.NotFoundError{Kind: "category", ID: category}
				}
				if account == "" {
					account = a.Config.Defaults.Account
				}
				if !a.Accounts.Exists(account) {
					return model.NotFoundError{Kind: "account", ID: account}
				}
				r := model.RecurringRule{
					Type:          txType,
					Title:         title,
					Amount:        amt,
					Category:      category,
					Account:       account,
					PaymentMethod: payment,
					Notes:         notes,
					Frequency:     model.Frequency(frequency),
				}
				if start != "" {
					if r.StartDate, err = parseDate(start, a.Location); err != nil {
						return err
					}
				}
				ruleID, err := a.Recurring.Add(r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s rule %s\n", r.Frequency, id.Short(ruleID))
				return a.Record(ctx, "recurring add: "+ruleID, activitylog.Entry{
					Action: "add", Kind: "recurring", TargetID: ruleID,
					Details: fmt.Sprintf("%s %s %s", r.Frequency, money(amt), category),
				})
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "expense", "expense or income")
	cmd.Flags().StringVar(&title, "title", "", "description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringVarP(&account, "account", "a", "", "account")
	cmd.Flags().StringVar(&payment, "payment", "", "payment method")
	cmd.Flags().StringVar(&notes, "notes", "", "notes copied to each transaction")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", string(model.Monthly), "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&start, "start", "", "do not fire before this date (YYYY-MM-DD)")
	return cmd
}

func newRecurringListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				now := a.Now()
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tFREQUENCY\tTYPE\tAMOUNT\tCATEGORY\tTITLE\tLAST RUN\tSTATE")
				for _, r := range a.Recurring.Rules() {
					state := "active"
					switch {
					case !r.IsActive:
						state = "paused"
					case recurring.Due(r, now):
						state = "due"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						id.Short(r.ID), r.Frequency, r.Type, money(r.Amount), r.Category, r.Title,
						r.LastProcessed.In(a.Location).Format(time.DateOnly), state)
				}
				return tw.Flush()
			})
		},
	}
}

func resolveRule(a *app.App, ref string) (string, error) {
	ruleID, err := id.Resolve(ref, a.Recurring.IDs())
	if err != nil {
		return "", err
	}
	if _, ok := a.Recurring.Get(ruleID); !ok {
		return "", model.NotFoundError{Kind: "recurring rule", ID: ref}
	}
	return ruleID, nil
}

func newRecurringRemoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a rule; transactions it created are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				ruleID, err := resolveRule(a, args[0])
				if err != nil {
					return err
				}
				if err := a.Recurring.Remove(ruleID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %s\n", id.Short(ruleID))
				return a.Record(ctx, "recurring remove: "+ruleID, activitylog.Entry{Action: "remove", Kind: "recurring", TargetID: ruleID})
			})
		},
	}
}

func newRecurringActiveCommand(g *globals, verb, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				ruleID, err := resolveRule(a, args[0])
				if err != nil {
					return err
				}
				if err := a.Recurring.SetActive(ruleID, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %s %sd\n", id.Short(ruleID), verb)
				return a.Record(ctx, "recurring "+verb+": "+ruleID, activitylog.Entry{Action: verb, Kind: "recurring", TargetID: ruleID})
			})
		},
	}
}

func newRecurringProcessCommand(g *globals) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Create the transactions of every due rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				when := a.Now()
				if asOf != "" {
					d, err := parseDate(asOf, a.Location)
					if err != nil {
						return err
					}
					when = d
				}
				created, err := processRecurring(ctx, a, when)
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d recurring transaction(s)\n", len(created))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "process as if today were this date (YYYY-MM-DD)")
	return cmd
}

// processRecurring runs one pass and records what it created. Transactions
// created before a failure are still recorded.
func processRecurring(ctx context.Context, a *app.App, asOf time.Time) ([]string, error) {
	created, err := a.Recurring.ProcessAll(ctx, asOf)
	if len(created) > 0 {
		entries := make([]activitylog.Entry, len(created))
		for i, txID := range created {
			entries[i] = activitylog.Entry{Action: "materialize", Kind: "transaction", TargetID: txID}
		}
		if rerr := a.Record(ctx, fmt.Sprintf("recurring process: %d transaction(s)", len(created)), entries...); err == nil {
			err = rerr
		}
	}
	return created, err
}
