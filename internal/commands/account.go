package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/accounts"
	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/model"
)

func newAccountCommand(g *globals) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(g),
		newAccountListCommand(g),
		newAccountUpdateCommand(g),
		newAccountRemoveCommand(g),
		newAccountImportCommand(g),
	)
	return accountCmd
}

func newAccountAddCommand(g *globals) *cobra.Command {
	var accountID, typ, opening string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				bal, err := parseAmount(opening)
				if err != nil {
					return err
				}
				newID, err := a.Accounts.Add(model.Account{
					ID:      accountID,
					Name:    args[0],
					Type:    model.AccountType(typ),
					Balance: bal,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added account %s\n", newID)
				return a.Record(ctx, "account add: "+newID, activitylog.Entry{Action: "add", Kind: "account", TargetID: newID, Details: args[0]})
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "id", "", "account id (default generated)")
	cmd.Flags().StringVar(&typ, "type", string(model.AccountTypeCash), "cash, bank, credit, savings or investment")
	cmd.Flags().StringVar(&opening, "opening", "0", "opening balance")
	return cmd
}

func newAccountListCommand(g *globals) *cobra.Command {
	var asCSV bool
	var typ string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				listed := a.Accounts.All()
				if typ != "" {
					t := model.AccountType(typ)
					if !t.Valid() {
						return model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown account type %q", typ)}
					}
					listed = a.Accounts.ByType(t)
				}
				if asCSV {
					return accounts.WriteAccounts(cmd.OutOrStdout(), listed)
				}
				keep := make(map[string]bool, len(listed))
				for _, acc := range listed {
					keep[acc.ID] = true
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tOPENING\tBALANCE")
				for _, ab := range a.Accounts.Balances() {
					if !keep[ab.Account.ID] {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						ab.Account.ID, ab.Account.Name, ab.Account.Type, money(ab.Account.Balance), money(ab.Balance))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write the accounts as CSV (id,name,type,opening_balance)")
	cmd.Flags().StringVar(&typ, "type", "", "only accounts of this type")
	return cmd
}

func newAccountImportCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the accounts listed in a CSV written by account list --csv",
		Long:  "Accounts whose id already exists are left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			accts, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var entries []activitylog.Entry
				for _, acct := range accts {
					if a.Accounts.Exists(acct.ID) {
						continue
					}
					if _, err := a.Accounts.Add(acct); err != nil {
						return fmt.Errorf("account %s: %w", acct.ID, err)
					}
					entries = append(entries, activitylog.Entry{Action: "add", Kind: "account", TargetID: acct.ID, Details: acct.Name})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d account(s), %d already present\n", len(entries), len(accts)-len(entries))
				if len(entries) == 0 {
					return nil
				}
				return a.Record(ctx, fmt.Sprintf("account import: %d account(s)", len(entries)), entries...)
			})
		},
	}
}

func newAccountUpdateCommand(g *globals) *cobra.Command {
	var name, typ, opening string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename an account or change its type or opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var p accounts.Patch
				if cmd.Flags().Changed("name") {
					p.Name = &name
				}
				if cmd.Flags().Changed("type") {
					t := model.AccountType(typ)
					p.Type = &t
				}
				if cmd.Flags().Changed("opening") {
					bal, err := parseAmount(opening)
					if err != nil {
						return err
					}
					p.Balance = &bal
				}
				if err := a.Accounts.Update(args[0], p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s\n", args[0])
				return a.Record(ctx, "account update: "+args[0], activitylog.Entry{Action: "update", Kind: "account", TargetID: args[0]})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&typ, "type", "", "new type")
	cmd.Flags().StringVar(&opening, "opening", "", "new opening balance")
	return cmd
}

func newAccountRemoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an account; its transactions are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Accounts.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", args[0])
				return a.Record(ctx, "account remove: "+args[0], activitylog.Entry{Action: "remove", Kind: "account", TargetID: args[0]})
			})
		},
	}
}

func newBalanceCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show account balances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					acct, ok := a.Accounts.Get(args[0])
					if !ok {
						// Deleted accounts still have a ledger balance.
						fmt.Fprintf(out, "%s: %s\n", args[0], money(a.Ledger.Balance(args[0])))
						return nil
					}
					fmt.Fprintf(out, "%s: %s\n", acct.Name, money(a.Accounts.BalanceOf(acct.ID)))
					return nil
				}
				tw := newTable(out)
				for _, ab := range a.Accounts.Balances() {
					fmt.Fprintf(tw, "%s\t%s\n", ab.Account.Name, money(ab.Balance))
				}
				fmt.Fprintf(tw, "Total\t%s\n", money(a.Accounts.TotalBalance()))
				return tw.Flush()
			})
		},
	}
}
