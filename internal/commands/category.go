package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/taxonomy"
)

func newCategoryCommand(g *globals) *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	categoryCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return g.withApp(cmd, func(_ context.Context, a *app.App) error {
					for _, c := range a.Categories.All() {
						fmt.Fprintln(cmd.OutOrStdout(), c)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
					name := strings.TrimSpace(args[0])
					if err := a.Categories.Add(name); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added category %s\n", name)
					return a.Record(ctx, "category add: "+name, activitylog.Entry{Action: "add", Kind: "category", TargetID: name})
				})
			},
		},
		&cobra.Command{
			Use:   "rename <from> <to>",
			Short: "Rename a category and every transaction using it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
					n, err := a.Categories.Rename(args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s (%d transaction(s))\n", args[0], args[1], n)
					return a.Record(ctx, "category rename: "+args[0]+" -> "+args[1], activitylog.Entry{
						Action: "rename", Kind: "category", TargetID: args[0], Details: fmt.Sprintf("%s (%d)", args[1], n),
					})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a category; its transactions move to the fallback category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
					n, err := a.Categories.Delete(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s; %d transaction(s) moved to %s\n", args[0], n, a.Categories.Fallback())
					return a.Record(ctx, "category delete: "+args[0], activitylog.Entry{
						Action: "delete", Kind: "category", TargetID: args[0], Details: fmt.Sprint(n),
					})
				})
			},
		},
	)
	return categoryCmd
}

func newTagCommand(g *globals) *cobra.Command {
	return newSuggestCommand(g, "tag", "List known tags", func(a *app.App) *taxonomy.Set { return a.Tags })
}

func newMerchantCommand(g *globals) *cobra.Command {
	return newSuggestCommand(g, "merchant", "List known merchants", func(a *app.App) *taxonomy.Set { return a.Merchants })
}

// newSuggestCommand lists a registry, or the suggestions for a query.
func newSuggestCommand(g *globals, use, short string, set func(*app.App) *taxonomy.Set) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   use + " [query]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				s := set(a)
				items := s.All()
				if len(args) == 1 {
					items = s.Suggestions(args[0], limit)
				}
				for _, it := range items {
					fmt.Fprintln(cmd.OutOrStdout(), it)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", taxonomy.DefaultSuggestionLimit, "maximum suggestions")
	return cmd
}
