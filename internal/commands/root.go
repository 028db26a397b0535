package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/buildinfo"
	"github.com/cleared-dev/pocket/internal/config"
	"github.com/cleared-dev/pocket/internal/logger"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	dir       string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:     "pocket",
		Short:   "Personal finance ledger and budget tracker",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	defaultDir := os.Getenv("POCKET_DIR")
	if defaultDir == "" {
		defaultDir = "."
	}
	rootCmd.PersistentFlags().StringVar(&g.dir, "dir", defaultDir, "data directory (env POCKET_DIR)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "override log.format")

	rootCmd.AddCommand(
		newInitCommand(),
		newTxCommand(g),
		newAccountCommand(g),
		newBalanceCommand(g),
		newBudgetCommand(g),
		newRecurringCommand(g),
		newCategoryCommand(g),
		newTagCommand(g),
		newMerchantCommand(g),
		newGoalCommand(g),
		newReportCommand(g),
		newExportCommand(g),
		newImportCommand(g),
		newWatchCommand(g),
		newLogCommand(g),
	)

	return rootCmd
}

// settings resolves the data directory, its config and the logger every
// command runs with.
func (g *globals) settings(cmd *cobra.Command) (string, *config.Config, zerolog.Logger, error) {
	dir, err := filepath.Abs(g.dir)
	if err != nil {
		return "", nil, zerolog.Nop(), fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadDir(dir)
	if err != nil {
		return "", nil, zerolog.Nop(), err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: cmd.ErrOrStderr()})
	if err != nil {
		return "", nil, zerolog.Nop(), err
	}
	return dir, cfg, log, nil
}

// withApp opens the data directory, runs fn and closes the app.
func (g *globals) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	dir, cfg, log, err := g.settings(cmd)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(cmd.Context(), log)
	return runApp(ctx, dir, cfg, fn, app.WithLogger(log))
}

// runApp opens the app, runs fn and closes it. Close flushes pending writes,
// so a failed save surfaces as the returned error.
func runApp(ctx context.Context, dir string, cfg *config.Config, fn func(ctx context.Context, a *app.App) error, opts ...app.Option) (err error) {
	a, err := app.Open(ctx, dir, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); err == nil && cerr != nil {
			err = fmt.Errorf("saving changes: %w", cerr)
		}
	}()
	return fn(ctx, a)
}
