package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/export"
	"github.com/cleared-dev/pocket/internal/ledger"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

func newExportCommand(g *globals) *cobra.Command {
	var format, output, month string
	var includeDeleted bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(_ context.Context, a *app.App) error {
				var txns []model.Transaction
				if includeDeleted {
					txns = a.Ledger.All()
				} else {
					txns = a.Ledger.Active()
				}
				if month != "" {
					r, err := parseMonth(month, a.Now())
					if err != nil {
						return err
					}
					txns = period.InRange(txns, r)
				}
				ledger.SortByDateDesc(txns)

				if output == "" {
					if strings.EqualFold(format, export.FormatXLSX) {
						return fmt.Errorf("xlsx export needs --output")
					}
					return export.Write(cmd.OutOrStdout(), format, txns, a.Location)
				}
				path := output
				if !filepath.IsAbs(path) {
					path = filepath.Join(a.DataDir, "exports", path)
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("creating export dir: %w", err)
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating export: %w", err)
				}
				if err := export.Write(f, format, txns, a.Location); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("closing export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transaction(s) to %s\n", len(txns), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file name; relative names go under exports/ (default stdout)")
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "also export transactions in the trash")
	return cmd
}
