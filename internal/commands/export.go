package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/store"
)

var (
	chartFile   = filepath.Join("accounts", "chart-of-accounts.csv")
	journalFile = filepath.Join("journal", "journal.csv")
)

func newExportCommand() *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart of accounts and journal as CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				n, err := writeChart(ctx, p.engine, p.dir)
				if err != nil {
					return err
				}
				lines, err := writeJournal(ctx, p.engine, p.dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d accounts and %d journal lines\n", n, lines)

				if !commit {
					return nil
				}
				if !gitops.IsRepo(p.dir) {
					return fmt.Errorf("%s is not a git repository, run init with --git", p.dir)
				}
				hash, err := gitops.CommitAll(ctx, p.dir, "export: "+today().Format("2006-01-02"), gitops.DefaultAuthor)
				if err != nil {
					return err
				}
				if hash == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to commit")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the exported files to git")
	return cmd
}

// writeChart writes every account, active or not, to the project's chart CSV.
func writeChart(ctx context.Context, e *engine.Engine, dir string) (int, error) {
	chart, err := e.Accounts(ctx, true)
	if err != nil {
		return 0, err
	}
	err = writeCSV(filepath.Join(dir, chartFile), func(f *os.File) error {
		return accounts.WriteAccounts(f, chart)
	})
	if err != nil {
		return 0, fmt.Errorf("writing chart of accounts: %w", err)
	}
	return len(chart), nil
}

func writeJournal(ctx context.Context, e *engine.Engine, dir string) (int, error) {
	lines, err := e.Lines(ctx, store.LineFilter{})
	if err != nil {
		return 0, err
	}
	err = writeCSV(filepath.Join(dir, journalFile), func(f *os.File) error {
		return journal.WriteLines(f, lines)
	})
	if err != nil {
		return 0, fmt.Errorf("writing journal: %w", err)
	}
	return len(lines), nil
}

func writeCSV(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
