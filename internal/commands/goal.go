package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
)

func newGoalCommand(g *globals) *cobra.Command {
	goalCmd := &cobra.Command{
		Use:   "goal",
		Short: "Track savings and pay-off goals",
	}

	var typ string
	addCmd := &cobra.Command{
		Use:   "add <title> <target>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				target, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				goalID, err := a.Goals.Add(model.Goal{Title: args[0], TargetAmount: target, Type: model.GoalType(typ)})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s\n", id.Short(goalID))
				return a.Record(ctx, "goal add: "+goalID, activitylog.Entry{Action: "add", Kind: "goal", TargetID: goalID, Details: args[0]})
			})
		},
	}
	addCmd.Flags().StringVar(&typ, "type", string(model.GoalSave), "save or pay_off")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tTARGET\tCURRENT\tPROGRESS")
				for _, p := range a.Goals.AllProgress() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s%%\n",
						id.Short(p.Goal.ID), p.Goal.Title, p.Goal.Type, money(p.Goal.TargetAmount),
						money(p.Current), p.Percentage.StringFixed(1))
				}
				return tw.Flush()
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				goalID, err := id.Resolve(args[0], a.Goals.IDs())
				if err != nil {
					return err
				}
				if err := a.Goals.Remove(goalID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed goal %s\n", id.Short(goalID))
				return a.Record(ctx, "goal remove: "+goalID, activitylog.Entry{Action: "remove", Kind: "goal", TargetID: goalID})
			})
		},
	}

	goalCmd.AddCommand(addCmd, listCmd, removeCmd)
	return goalCmd
}
