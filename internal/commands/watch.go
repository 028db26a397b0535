package commands

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/logger"
)

// opener runs fn against a freshly opened app and closes it afterwards.
type opener func(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error

func newWatchCommand(g *globals) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process recurring rules and report budget alerts on a schedule",
		Long: "Runs one pass immediately, then on every tick of the cron schedule\n" +
			"(watch.schedule in pocket.yaml, default @every 1h) until interrupted.\n" +
			"Every pass reloads the data directory, so other pocket commands may run\n" +
			"while watch is active.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, cfg, log, err := g.settings(cmd)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return fmt.Errorf("timezone: %w", err)
			}
			spec := schedule
			if spec == "" {
				spec = cfg.Watch.Schedule
			}
			open := func(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
				return runApp(ctx, dir, cfg, fn, app.WithLogger(log))
			}
			return watch(logger.WithContext(cmd.Context(), log), cmd.OutOrStdout(), spec, loc, open)
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron spec overriding watch.schedule")
	return cmd
}

// watch blocks until ctx is done. Passes never overlap, and a pass that has
// started runs to completion after ctx is cancelled.
func watch(ctx context.Context, out io.Writer, spec string, loc *time.Location, open opener) error {
	log := logger.FromContext(ctx)
	passCtx := context.WithoutCancel(ctx)
	pass := watchPass(out, open)
	var mu sync.Mutex
	run := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := pass(passCtx); err != nil {
			log.Error().Err(err).Msg("watch pass failed")
		}
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, run); err != nil {
		return fmt.Errorf("watch schedule %q: %w", spec, err)
	}
	run()
	c.Start()
	log.Info().Str("schedule", spec).Msg("watching")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// watchPass returns one recurring pass plus budget check. State is opened
// per pass and closed before it returns, so nothing in memory outlives the
// pass to overwrite what other commands saved in between.
func watchPass(out io.Writer, open opener) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return open(ctx, func(ctx context.Context, a *app.App) error {
			now := a.Now()
			created, err := processRecurring(ctx, a, now)
			if len(created) > 0 {
				fmt.Fprintf(out, "%s created %d recurring transaction(s)\n", now.Format("2006-01-02 15:04"), len(created))
			}
			for _, al := range a.Budget.Alerts(a.Ledger.All()) {
				fmt.Fprintln(out, describeAlert(al))
			}
			return err
		})
	}
}
