package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
)

const importDir = "import"

func newBankCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Import and match bank transactions",
	}
	cmd.AddCommand(newBankImportCommand(), newBankListCommand(), newBankMatchCommand(), newBankUnmatchCommand())
	return cmd
}

func newBankImportCommand() *cobra.Command {
	var account, format string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank CSV, or every CSV waiting in import/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				bank, err := accountID(ctx, p.engine, account)
				if err != nil {
					return err
				}
				if bank == "" {
					bank = p.engine.Settings().DefaultBankAccountID
				}

				if len(args) == 1 {
					return importFile(ctx, cmd, p, bank, format, args[0])
				}

				dir := filepath.Join(p.dir, importDir)
				files, err := importer.Scan(dir)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", dir)
					return nil
				}
				for _, f := range files {
					if err := importFile(ctx, cmd, p, bank, format, f.Path); err != nil {
						return fmt.Errorf("%s: %w", f.Name, err)
					}
					if err := importer.MarkProcessed(dir, f.Name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "bank account number or id, default bank if empty")
	cmd.Flags().StringVar(&format, "format", "chase", "CSV format ("+strings.Join(importer.DefaultRegistry().Formats(), ", ")+")")
	return cmd
}

func importFile(ctx context.Context, cmd *cobra.Command, p *project, acct, format, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := p.engine.ImportBank(ctx, acct, format, f)
	if err != nil {
		return err
	}
	p.log.Debug("bank file imported", zap.String("file", path), zap.Int("imported", len(res.Imported)), zap.Int("skipped", res.Skipped))
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d, skipped %d duplicates\n", filepath.Base(path), len(res.Imported), res.Skipped)
	return nil
}

func newBankListCommand() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported bank transactions for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				id, err := accountID(ctx, p.engine, account)
				if err != nil {
					return err
				}
				if id == "" {
					id = p.engine.Settings().DefaultBankAccountID
				}
				rows, err := p.engine.BankTransactions(ctx, id)
				if err != nil {
					return err
				}
				return printBankRows(cmd, rows)
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "bank account number or id, default bank if empty")
	return cmd
}

func printBankRows(cmd *cobra.Command, rows []model.BankTransaction) error {
	return output(cmd, rows, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "DATE\tAMOUNT\tSTATE\tDESCRIPTION\tREFERENCE\tID")
		for _, b := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", formatDate(b.Date), b.Amount.StringFixed(2), b.State, b.Description, b.Reference, b.ID)
		}
	})
}

func printBankRow(cmd *cobra.Command, b model.BankTransaction) error {
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), b)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", b.ID, b.Amount.StringFixed(2), b.State)
	return nil
}

func newBankMatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "match <bank-txn-id> <transaction-id>",
		Short: "Link a bank transaction to a ledger transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				b, err := p.engine.MatchBankTransaction(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printBankRow(cmd, b)
			})
		},
	}
}

func newBankUnmatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unmatch <bank-txn-id>",
		Short: "Remove a bank transaction's ledger link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				b, err := p.engine.UnmatchBankTransaction(ctx, args[0])
				if err != nil {
					return err
				}
				return printBankRow(cmd, b)
			})
		},
	}
}

func newReconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile an account against a bank statement",
	}

	var account, date, ending string
	open := &cobra.Command{
		Use:   "open",
		Short: "Open a reconciliation session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dateFlag(date)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(ending)
			if err != nil {
				return fmt.Errorf("invalid --ending %q: %w", ending, err)
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				id, err := accountID(ctx, p.engine, account)
				if err != nil {
					return err
				}
				s, err := p.engine.OpenReconciliation(ctx, id, day, amount)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), s)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Opened session %s (opening %s, ending %s)\n", s.ID, s.OpeningBalance.StringFixed(2), s.EndingBalance.StringFixed(2))
				return nil
			})
		},
	}
	open.Flags().StringVar(&account, "account", "", "account number or id (required)")
	open.Flags().StringVar(&date, "date", "", "statement date (YYYY-MM-DD, required)")
	open.Flags().StringVar(&ending, "ending", "", "statement ending balance (required)")
	for _, f := range []string{"account", "date", "ending"} {
		_ = open.MarkFlagRequired(f)
	}

	var session string
	mark := &cobra.Command{
		Use:   "mark <bank-txn-id>",
		Short: "Mark a bank transaction as cleared in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				b, err := p.engine.SetBankTransactionReconciled(ctx, args[0], session)
				if err != nil {
					return err
				}
				return printBankRow(cmd, b)
			})
		},
	}
	mark.Flags().StringVar(&session, "session", "", "session id (required)")
	_ = mark.MarkFlagRequired("session")

	unmark := &cobra.Command{
		Use:   "clear <bank-txn-id>",
		Short: "Remove a bank transaction from its session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				b, err := p.engine.SetBankTransactionReconciled(ctx, args[0], "")
				if err != nil {
					return err
				}
				return printBankRow(cmd, b)
			})
		},
	}

	complete := &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Complete a session whose cleared balance matches the statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				s, err := p.engine.CompleteReconciliation(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), s)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed session %s at %s\n", s.ID, s.ClearedBalance.StringFixed(2))
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session with its cleared transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				d, err := p.engine.Reconciliation(ctx, args[0])
				if err != nil {
					return err
				}
				return output(cmd, d, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "Session %s %s statement %s\n", d.ID, d.Status, formatDate(d.StatementDate))
					fmt.Fprintf(w, "Opening\t%s\n", d.OpeningBalance.StringFixed(2))
					fmt.Fprintf(w, "Cleared\t%s\n", d.Cleared.StringFixed(2))
					fmt.Fprintf(w, "Ending\t%s\n", d.EndingBalance.StringFixed(2))
					fmt.Fprintf(w, "Difference\t%s\n", d.Difference.StringFixed(2))
					for _, b := range d.Members {
						fmt.Fprintf(w, "  %s\t%s\t%s\n", formatDate(b.Date), b.Amount.StringFixed(2), b.Description)
					}
				})
			})
		},
	}

	cmd.AddCommand(open, mark, unmark, complete, show)
	return cmd
}
