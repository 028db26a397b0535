package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/ledger"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

func newTxCommand(g *globals) *cobra.Command {
	txCmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record and query transactions",
	}
	txCmd.AddCommand(
		newTxAddCommand(g),
		newTxListCommand(g),
		newTxShowCommand(g),
		newTxUpdateCommand(g),
		newTxDeleteCommand(g),
		newTxRestoreCommand(g),
		newTxPurgeCommand(g),
		newTxSearchCommand(g),
		newTxTrashCommand(g),
	)
	return txCmd
}

// txFlags are the editable transaction fields shared by add and update.
type txFlags struct {
	typ, date, title, category, subcategory string
	account, from, to, payment, merchant    string
	notes                                   string
	tags                                    []string
}

func (f *txFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.typ, "type", "expense", "expense, income or transfer")
	fs.StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default today)")
	fs.StringVar(&f.title, "title", "", "short description")
	fs.StringVarP(&f.category, "category", "c", "", "category")
	fs.StringVar(&f.subcategory, "subcategory", "", "subcategory")
	fs.StringVarP(&f.account, "account", "a", "", "account for expenses and income")
	fs.StringVar(&f.from, "from", "", "source account for transfers")
	fs.StringVar(&f.to, "to", "", "destination account for transfers")
	fs.StringVar(&f.payment, "payment", "", "payment method")
	fs.StringVar(&f.merchant, "merchant", "", "merchant")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
	fs.StringSliceVarP(&f.tags, "tag", "t", nil, "tag (repeatable)")
}

func newTxAddCommand(g *globals) *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Add a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := f.transaction(a, args[0])
				if err != nil {
					return err
				}
				txID, err := a.Ledger.Add(t)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", t.Type, money(t.Amount), id.Short(txID))
				return a.Record(ctx, "tx add: "+txID, activitylog.Entry{
					Action: "add", Kind: "transaction", TargetID: txID,
					Details: fmt.Sprintf("%s %s %s", t.Type, money(t.Amount), t.Category),
				})
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (f *txFlags) transaction(a *app.App, amount string) (model.Transaction, error) {
	typ, err := model.ParseTxType(f.typ)
	if err != nil {
		return model.Transaction{}, err
	}
	amt, err := parseAmount(amount)
	if err != nil {
		return model.Transaction{}, err
	}
	t := model.Transaction{
		Type:          typ,
		Amount:        amt,
		Title:         f.title,
		Category:      f.category,
		Subcategory:   f.subcategory,
		Account:       f.account,
		FromAccount:   f.from,
		ToAccount:     f.to,
		PaymentMethod: f.payment,
		Merchant:      f.merchant,
		Notes:         f.notes,
		Tags:          f.tags,
	}
	if f.date != "" {
		if t.Date, err = parseDate(f.date, a.Location); err != nil {
			return model.Transaction{}, err
		}
	}
	return t, nil
}

// patch builds a ledger patch from the flags the user actually set.
func (f *txFlags) patch(cmd *cobra.Command, a *app.App, amount string) (ledger.Patch, error) {
	var p ledger.Patch
	changed := cmd.Flags().Changed
	if amount != "" {
		amt, err := parseAmount(amount)
		if err != nil {
			return p, err
		}
		p.Amount = &amt
	}
	if changed("type") {
		typ, err := model.ParseTxType(f.typ)
		if err != nil {
			return p, err
		}
		p.Type = &typ
	}
	if changed("date") {
		d, err := parseDate(f.date, a.Location)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	strs := []struct {
		flag string
		src  *string
		dst  **string
	}{
		{"title", &f.title, &p.Title},
		{"category", &f.category, &p.Category},
		{"subcategory", &f.subcategory, &p.Subcategory},
		{"account", &f.account, &p.Account},
		{"from", &f.from, &p.FromAccount},
		{"to", &f.to, &p.ToAccount},
		{"payment", &f.payment, &p.PaymentMethod},
		{"merchant", &f.merchant, &p.Merchant},
		{"notes", &f.notes, &p.Notes},
	}
	for _, s := range strs {
		if changed(s.flag) {
			*s.dst = s.src
		}
	}
	if changed("tag") {
		p.Tags = &f.tags
	}
	return p, nil
}

func newTxUpdateCommand(g *globals) *cobra.Command {
	var f txFlags
	var amount string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				txID, err := resolveTx(a, args[0])
				if err != nil {
					return err
				}
				p, err := f.patch(cmd, a, amount)
				if err != nil {
					return err
				}
				if err := a.Ledger.Update(txID, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id.Short(txID))
				return a.Record(ctx, "tx update: "+txID, activitylog.Entry{Action: "update", Kind: "transaction", TargetID: txID})
			})
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	return cmd
}

func resolveTx(a *app.App, ref string) (string, error) {
	txID, err := id.Resolve(ref, a.Ledger.IDs())
	if err != nil {
		return "", err
	}
	if _, ok := a.Ledger.Get(txID); !ok {
		return "", model.NotFoundError{Kind: "transaction", ID: ref}
	}
	return txID, nil
}

// newTxIDCommand builds the single-id subcommands that differ only in the
// ledger call and the message.
func newTxIDCommand(g *globals, use, short, action, done string, fn func(l *ledger.Ledger, txID string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				txID, err := resolveTx(a, args[0])
				if err != nil {
					return err
				}
				if err := fn(a.Ledger, txID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, id.Short(txID))
				return a.Record(ctx, "tx "+use+": "+txID, activitylog.Entry{Action: action, Kind: "transaction", TargetID: txID})
			})
		},
	}
}

func newTxDeleteCommand(g *globals) *cobra.Command {
	return newTxIDCommand(g, "delete", "Move a transaction to the trash", "delete", "Deleted",
		(*ledger.Ledger).SoftDelete)
}

func newTxRestoreCommand(g *globals) *cobra.Command {
	return newTxIDCommand(g, "restore", "Restore a transaction from the trash", "restore", "Restored",
		(*ledger.Ledger).Restore)
}

func newTxPurgeCommand(g *globals) *cobra.Command {
	var all bool
	cmd := newTxIDCommand(g, "purge", "Permanently delete a transaction", "purge", "Purged",
		(*ledger.Ledger).PermanentDelete)
	cmd.Use = "purge [id]"
	cmd.Args = cobra.MaximumNArgs(1)
	single := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !all {
			if len(args) == 0 {
				return fmt.Errorf("purge needs an id or --all")
			}
			return single(cmd, args)
		}
		return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Ledger.EmptyTrash()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d transaction(s)\n", n)
			if n == 0 {
				return nil
			}
			return a.Record(ctx, "tx purge: trash", activitylog.Entry{Action: "empty_trash", Kind: "transaction", Details: fmt.Sprint(n)})
		})
	}
	cmd.Flags().BoolVar(&all, "all", false, "empty the whole trash")
	return cmd
}

func newTxShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				txID, err := resolveTx(a, args[0])
				if err != nil {
					return err
				}
				t, _ := a.Ledger.Get(txID)
				tw := newTable(cmd.OutOrStdout())
				rows := [][2]string{
					{"id", t.ID},
					{"type", string(t.Type)},
					{"amount", money(t.Amount)},
					{"date", t.Date.In(a.Location).Format("2006-01-02 15:04")},
					{"title", t.Title},
					{"category", strings.TrimSuffix(t.Category+" / "+t.Subcategory, " / ")},
					{"account", t.Account},
					{"from", t.FromAccount},
					{"to", t.ToAccount},
					{"payment", t.PaymentMethod},
					{"merchant", t.Merchant},
					{"tags", strings.Join(t.Tags, ", ")},
					{"notes", t.Notes},
					{"recurring", t.RecurringID},
				}
				if t.IsDeleted {
					rows = append(rows, [2]string{"deleted", t.DeletedAt.In(a.Location).Format("2006-01-02 15:04")})
				}
				for _, r := range rows {
					if r[1] != "" {
						fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
					}
				}
				return tw.Flush()
			})
		},
	}
}

func newTxListCommand(g *globals) *cobra.Command {
	var typ, category, account, payment, month, from, to string
	var tags []string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				f := ledger.Filter{Category: category, Account: account, PaymentMethod: payment, Tags: tags}
				if typ != "" {
					t, err := model.ParseTxType(typ)
					if err != nil {
						return err
					}
					f.Type = t
				}
				if month != "" {
					r, err := parseMonth(month, a.Now())
					if err != nil {
						return err
					}
					f.Start, f.End = r.Start, r.End
				}
				if from != "" {
					d, err := parseDate(from, a.Location)
					if err != nil {
						return err
					}
					f.Start = period.StartOfDay(d)
				}
				if to != "" {
					d, err := parseDate(to, a.Location)
					if err != nil {
						return err
					}
					f.End = period.EndOfDay(d)
				}
				txns := a.Ledger.Filter(f)
				ledger.SortByDateDesc(txns)
				if limit > 0 && len(txns) > limit {
					txns = txns[:limit]
				}
				return writeTransactions(cmd.OutOrStdout(), txns, a.Location)
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only this type")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&account, "account", "a", "", "only transactions touching this account")
	cmd.Flags().StringVar(&payment, "payment", "", "only this payment method")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "only transactions with any of these tags")
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&from, "since", "", "only on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "until", "", "only on or before this date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n transactions")
	return cmd
}

func newTxSearchCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles, categories, merchants, notes and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				txns := a.Ledger.Search(args[0])
				ledger.SortByDateDesc(txns)
				return writeTransactions(cmd.OutOrStdout(), txns, a.Location)
			})
		},
	}
}

func newTxTrashCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List deleted transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				return writeTransactions(cmd.OutOrStdout(), a.Ledger.Trash(), a.Location)
			})
		},
	}
}
