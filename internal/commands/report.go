package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/reports"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial reports",
	}
	cmd.PersistentFlags().String("as-of", "", "report date (YYYY-MM-DD), default today")

	trial := &cobra.Command{
		Use:   "trial-balance",
		Short: "Debit and credit totals per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := asOfFlag(cmd)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				tb, err := p.engine.GetTrialBalance(ctx, asOf)
				if err != nil {
					return err
				}
				return output(cmd, tb, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "Trial balance as of %s\n", formatDate(tb.AsOf))
					fmt.Fprintln(w, "NUMBER\tACCOUNT\tDEBIT\tCREDIT")
					for _, r := range tb.Rows {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Number, r.Name, r.NetDebit.StringFixed(2), r.NetCredit.StringFixed(2))
					}
					fmt.Fprintf(w, "\tTotal\t%s\t%s\n", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
					if !tb.Balanced {
						fmt.Fprintln(w, "WARNING: ledger is out of balance")
					}
				})
			})
		},
	}

	balance := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity at a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := asOfFlag(cmd)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				bs, err := p.engine.GetBalanceSheet(ctx, asOf)
				if err != nil {
					return err
				}
				return output(cmd, bs, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "Balance sheet as of %s\n", formatDate(bs.AsOf))
					printSection(w, bs.Assets)
					printSection(w, bs.Liabilities)
					printSection(w, bs.Equity)
					fmt.Fprintf(w, "Total Liabilities and Equity\t\t%s\n", bs.TotalLiabilitiesAndEquity.StringFixed(2))
				})
			})
		},
	}

	var from, to string
	income := &cobra.Command{
		Use:   "income-statement",
		Short: "Income and expenses over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateFlag(from)
			if err != nil {
				return err
			}
			end, err := dateFlag(to)
			if err != nil {
				return err
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				if end.IsZero() {
					end = today()
				}
				if start.IsZero() {
					if start, err = reports.FiscalYearStart(p.engine.Settings().FiscalYearStart, end); err != nil {
						return err
					}
				}
				is, err := p.engine.GetIncomeStatement(ctx, start, end)
				if err != nil {
					return err
				}
				return output(cmd, is, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "Income statement %s to %s\n", formatDate(is.From), formatDate(is.To))
					printSection(w, is.Income)
					printSection(w, is.Expenses)
					fmt.Fprintf(w, "Net Income\t\t%s\n", is.NetIncome.StringFixed(2))
				})
			})
		},
	}
	income.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD), default fiscal year start")
	income.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD), default today")

	var kind string
	aging := &cobra.Command{
		Use:   "aging",
		Short: "Open receivables or payables by days past due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := asOfFlag(cmd)
			if err != nil {
				return err
			}
			var k reports.AgingKind
			switch strings.ToLower(kind) {
			case "receivable", "ar":
				k = reports.AgingReceivable
			case "payable", "ap":
				k = reports.AgingPayable
			default:
				return fmt.Errorf("invalid --type %q, want receivable or payable", kind)
			}
			return withProject(cmd, func(ctx context.Context, p *project) error {
				ag, err := p.engine.GetAgingReport(ctx, asOf, k)
				if err != nil {
					return err
				}
				return output(cmd, ag, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "%s aging as of %s\n", ag.Kind, formatDate(ag.AsOf))
					fmt.Fprintf(w, "PARTY\t%s\tTOTAL\n", strings.ToUpper(strings.Join(reports.Buckets, "\t")))
					for _, s := range ag.Parties {
						fmt.Fprintf(w, "%s\t%s\t%s\n", s.PartyName, bucketRow(s.Buckets), s.Total.StringFixed(2))
					}
					fmt.Fprintf(w, "Total\t%s\t%s\n", bucketRow(ag.Totals), ag.Total.StringFixed(2))
				})
			})
		},
	}
	aging.Flags().StringVar(&kind, "type", "receivable", "receivable or payable")

	cmd.AddCommand(trial, balance, income, aging)
	return cmd
}

func asOfFlag(cmd *cobra.Command) (time.Time, error) {
	v, _ := cmd.Flags().GetString("as-of")
	return dateFlag(v)
}

func printSection(w *tabwriter.Writer, s reports.Section) {
	fmt.Fprintln(w, s.Type)
	for _, l := range s.Lines {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", l.Number, l.Name, l.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "Total %s\t\t%s\n", s.Type, s.Total.StringFixed(2))
}

func bucketRow(a reports.Amounts) string {
	cells := make([]string, len(reports.Buckets))
	for i, b := range reports.Buckets {
		cells[i] = a[b].StringFixed(2)
	}
	return strings.Join(cells, "\t")
}
