package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

func newPostCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a document from a YAML or JSON file",
		Long: "Post an invoice, sales receipt, bill, journal entry, payment, bill payment or deposit.\n" +
			"Account fields accept account numbers or ids. Use -f - to read stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readDocumentSpec(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				if err := resolveSpecAccounts(ctx, p.engine, &spec); err != nil {
					return err
				}
				doc, err := spec.ToDocument()
				if err != nil {
					return err
				}
				res, err := p.engine.PostTransaction(ctx, doc)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted %s %s total %s (%s)\n", res.Type, res.Number, res.Total.StringFixed(2), res.TransactionID)
				for _, a := range res.Allocations {
					fmt.Fprintf(cmd.OutOrStdout(), "  applied %s to %s\n", a.Amount.StringFixed(2), a.TargetID)
				}
				if !res.Unapplied.IsZero() {
					fmt.Fprintf(cmd.OutOrStdout(), "  unapplied %s\n", res.Unapplied.StringFixed(2))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "document file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readDocumentSpec(stdin io.Reader, file string) (model.DocumentSpec, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return model.DocumentSpec{}, fmt.Errorf("reading document: %w", err)
	}

	var spec model.DocumentSpec
	if strings.EqualFold(filepath.Ext(file), ".json") {
		err = json.Unmarshal(data, &spec)
	} else {
		err = yaml.Unmarshal(data, &spec)
	}
	if err != nil {
		return model.DocumentSpec{}, fmt.Errorf("parsing document: %w", err)
	}
	return spec, nil
}

// resolveSpecAccounts turns account numbers in a document into ids.
func resolveSpecAccounts(ctx context.Context, e *engine.Engine, spec *model.DocumentSpec) error {
	var err error
	for i := range spec.Items {
		if spec.Items[i].AccountID, err = accountID(ctx, e, spec.Items[i].AccountID); err != nil {
			return err
		}
	}
	for i := range spec.Lines {
		if spec.Lines[i].AccountID, err = accountID(ctx, e, spec.Lines[i].AccountID); err != nil {
			return err
		}
	}
	if spec.DepositAccountID, err = accountID(ctx, e, spec.DepositAccountID); err != nil {
		return err
	}
	spec.PaymentAccountID, err = accountID(ctx, e, spec.PaymentAccountID)
	return err
}

func newReverseCommand() *cobra.Command {
	var date, memo string
	cmd := &cobra.Command{
		Use:   "reverse <transaction-id>",
		Short: "Post a mirror-image entry that cancels a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dateFlag(date)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				res, err := p.engine.Reverse(ctx, args[0], day, memo)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s with %s (%s)\n", args[0], res.Number, res.TransactionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reversal date (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&memo, "memo", "", "memo")
	return cmd
}

func newPaymentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Apply payments to invoices and bills",
	}

	var party string
	auto := &cobra.Command{
		Use:   "auto <payment-id>",
		Short: "Apply a payment to the oldest open documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				res, err := p.engine.AutoApplyPayment(ctx, args[0], party)
				if err != nil {
					return err
				}
				return printApplied(cmd, res.Allocations, res.Unapplied, res)
			})
		},
	}
	auto.Flags().StringVar(&party, "party", "", "customer or vendor id (required)")
	_ = auto.MarkFlagRequired("party")

	var targets []string
	apply := &cobra.Command{
		Use:   "apply <payment-id>",
		Short: "Apply explicit amounts of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := parseApplications(targets)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				res, err := p.engine.ApplyPaymentManual(ctx, args[0], apps)
				if err != nil {
					return err
				}
				return printApplied(cmd, res.Allocations, res.Unapplied, res)
			})
		},
	}
	apply.Flags().StringArrayVar(&targets, "to", nil, "target-id=amount (repeatable)")
	_ = apply.MarkFlagRequired("to")

	undeposited := &cobra.Command{
		Use:   "undeposited",
		Short: "List payments waiting in undeposited funds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				txns, err := p.engine.Undeposited(ctx)
				if err != nil {
					return err
				}
				return printTransactions(cmd, txns)
			})
		},
	}

	cmd.AddCommand(auto, apply, undeposited)
	return cmd
}

func parseApplications(targets []string) ([]model.Application, error) {
	apps := make([]model.Application, 0, len(targets))
	for _, t := range targets {
		id, amt, ok := strings.Cut(t, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --to %q, want target-id=amount", t)
		}
		amount, err := decimal.NewFromString(amt)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in --to %q: %w", t, err)
		}
		apps = append(apps, model.Application{TargetID: id, Amount: amount})
	}
	return apps, nil
}

func printApplied(cmd *cobra.Command, allocs []model.Allocation, unapplied decimal.Decimal, v any) error {
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), v)
	}
	for _, a := range allocs {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s to %s\n", a.Amount.StringFixed(2), a.TargetID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unapplied %s\n", unapplied.StringFixed(2))
	return nil
}

func printTransactions(cmd *cobra.Command, txns []model.Transaction) error {
	return output(cmd, txns, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "NUMBER\tTYPE\tDATE\tTOTAL\tSTATUS\tID")
		for _, t := range txns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Number, t.Type, formatDate(t.Date), t.Total.StringFixed(2), t.Status, t.ID)
		}
	})
}

func newDepositCommand() *cobra.Command {
	var payments []string
	var account, date, memo string
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Move undeposited payments into a bank account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dateFlag(date)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				bank, err := accountID(ctx, p.engine, account)
				if err != nil {
					return err
				}
				if day.IsZero() {
					day = today()
				}
				res, err := p.engine.PostTransaction(ctx, model.Deposit{Date: day, DepositAccountID: bank, PaymentIDs: payments, Memo: memo})
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deposited %s as %s (%s)\n", res.Total.StringFixed(2), res.Number, res.TransactionID)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&payments, "payments", nil, "payment ids (required)")
	cmd.Flags().StringVar(&account, "account", "", "bank account number or id, default bank if empty")
	cmd.Flags().StringVar(&date, "date", "", "deposit date (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&memo, "memo", "", "memo")
	_ = cmd.MarkFlagRequired("payments")
	return cmd
}

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect posted journal lines",
	}

	var account, from, to string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write journal lines as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.LineFilter{}
			var err error
			if f.From, err = dateFlag(from); err != nil {
				return err
			}
			if f.To, err = dateFlag(to); err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				if f.AccountID, err = accountID(ctx, p.engine, account); err != nil {
					return err
				}
				return p.engine.ExportJournal(ctx, cmd.OutOrStdout(), f)
			})
		},
	}
	export.Flags().StringVar(&account, "account", "", "account number or id")
	export.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	export.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")

	show := &cobra.Command{
		Use:   "show <transaction-id>",
		Short: "Show a transaction and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				t, err := p.engine.Transaction(ctx, args[0])
				if err != nil {
					return err
				}
				return output(cmd, t, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "%s %s %s total %s\n", t.Number, t.Type, formatDate(t.Date), t.Total.StringFixed(2))
					fmt.Fprintln(w, "ACCOUNT\tDEBIT\tCREDIT\tDESCRIPTION")
					for _, l := range t.Lines {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.AccountID, l.Debit.StringFixed(2), l.Credit.StringFixed(2), l.Description)
					}
				})
			})
		},
	}

	var types []string
	var party, until string
	list := &cobra.Command{
		Use:   "list",
		Short: "List posted transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.TransactionFilter{PartyID: party}
			for _, t := range types {
				f.Types = append(f.Types, model.TransactionType(t))
			}
			var err error
			if f.To, err = dateFlag(until); err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				txns, err := p.engine.Transactions(ctx, f)
				if err != nil {
					return err
				}
				return printTransactions(cmd, txns)
			})
		},
	}
	list.Flags().StringSliceVar(&types, "type", nil, "transaction types, e.g. Invoice,Bill")
	list.Flags().StringVar(&party, "party", "", "customer or vendor id")
	list.Flags().StringVar(&until, "to", "", "last date (YYYY-MM-DD)")

	cmd.AddCommand(export, list, show)
	return cmd
}
