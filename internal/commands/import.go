package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/importer"
	"github.com/cleared-dev/pocket/internal/model"
)

func newImportCommand(g *globals) *cobra.Command {
	var account, tag string
	var noTag bool
	registry := importer.DefaultRegistry()
	formats := registry.Formats()
	sort.Strings(formats)

	cmd := &cobra.Command{
		Use:   "import <format> [file...]",
		Short: "Import a bank statement CSV",
		Long: "Import bank statement CSVs into the ledger. With no files, every CSV in\n" +
			"<dir>/import/ is imported and moved to import/processed/.\n" +
			"Formats: " + strings.Join(formats, ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := registry.Get(args[0])
			if parser == nil {
				return model.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown import format %q", args[0])}
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.Accounts.Exists(account) {
					return model.NotFoundError{Kind: "account", ID: account}
				}
				opts := importer.Options{
					Account:    account,
					Fallback:   a.Categories.Fallback(),
					Rules:      importer.DefaultRules,
					Categories: a.Categories,
					Location:   a.Location,
					Tag:        tag,
				}
				if opts.Tag == "" && !noTag {
					opts.Tag = parser.Format()
				}

				files := args[1:]
				scanned := len(files) == 0
				if scanned {
					found, err := importer.Scan(a.DataDir)
					if err != nil {
						return err
					}
					for _, f := range found {
						files = append(files, f.Path)
					}
				}

				out := cmd.OutOrStdout()
				var entries []activitylog.Entry
				for _, path := range files {
					res, err := importFile(a, parser, path, opts)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %d imported, %d skipped\n", filepath.Base(path), len(res.Created), res.Skipped)
					entries = append(entries, activitylog.Entry{
						Action: "import", Kind: "statement", TargetID: filepath.Base(path),
						Details: fmt.Sprintf("%s %d imported %d skipped", parser.Format(), len(res.Created), res.Skipped),
					})
					if scanned {
						if err := importer.MarkProcessed(a.DataDir, filepath.Base(path)); err != nil {
							return err
						}
					}
				}
				if len(files) == 0 {
					fmt.Fprintln(out, "Nothing to import")
					return nil
				}
				return a.Record(ctx, fmt.Sprintf("import %s: %d file(s)", parser.Format(), len(files)), entries...)
			})
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "checking", "account the statement belongs to")
	cmd.Flags().StringVar(&tag, "tag", "", "tag added to imported transactions (default the format name)")
	cmd.Flags().BoolVar(&noTag, "no-tag", false, "do not tag imported transactions")
	return cmd
}

func importFile(a *app.App, p importer.Parser, path string, opts importer.Options) (importer.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	rows, err := p.Parse(f)
	if err != nil {
		return importer.Result{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return importer.Import(a.Ledger, rows, opts)
}
