package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(newAccountListCommand(), newAccountAddCommand(), newAccountActiveCommand(false), newAccountActiveCommand(true))
	return cmd
}

func newAccountListCommand() *cobra.Command {
	var all, csvOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				accts, err := p.engine.Accounts(ctx, all)
				if err != nil {
					return err
				}
				if csvOut {
					return accounts.WriteAccounts(cmd.OutOrStdout(), accts)
				}
				return output(cmd, accts, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "NUMBER\tNAME\tTYPE\tBALANCE\tACTIVE\tID")
					for _, a := range accts {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", a.Number, a.Name, a.Type, a.Balance.StringFixed(2), a.Active, a.ID)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive accounts")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "print the chart as CSV")
	return cmd
}

func newAccountAddCommand() *cobra.Command {
	var number, name, typ, detail, parent, opening, openingDate string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				a := model.Account{
					Number: number,
					Name:   name,
					Type:   model.AccountType(typ),
					Detail: model.DetailType(detail),
				}
				var err error
				if a.ParentID, err = accountID(ctx, p.engine, parent); err != nil {
					return err
				}
				if opening != "" {
					if a.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
						return fmt.Errorf("invalid opening balance %q: %w", opening, err)
					}
				}
				if a.OpeningDate, err = dateFlag(openingDate); err != nil {
					return err
				}

				created, err := p.engine.CreateAccount(ctx, a)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), created)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %s %s (%s)\n", created.Number, created.Name, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "account number")
	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&typ, "type", "", "Asset, Liability, Equity, Income or Expense (required)")
	cmd.Flags().StringVar(&detail, "detail", "", "detail type, e.g. Checking")
	cmd.Flags().StringVar(&parent, "parent", "", "parent account number or id")
	cmd.Flags().StringVar(&opening, "opening-balance", "", "opening balance")
	cmd.Flags().StringVar(&openingDate, "opening-date", "", "opening balance date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newAccountActiveCommand(active bool) *cobra.Command {
	use, short := "deactivate <account>", "Hide an account from new postings"
	if active {
		use, short = "reactivate <account>", "Re-enable a deactivated account"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				a, err := resolveAccount(ctx, p.engine, args[0])
				if err != nil {
					return err
				}
				if active {
					err = p.engine.ReactivateAccount(ctx, a.ID)
				} else {
					err = p.engine.DeactivateAccount(ctx, a.ID)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s %s active=%t\n", a.Number, a.Name, active)
				return nil
			})
		},
	}
}
