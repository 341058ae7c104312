package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
)

// newPartyCommand builds `tally customer` or `tally vendor`.
func newPartyCommand(use string) *cobra.Command {
	kind := model.PartyCustomer
	if use == "vendor" {
		kind = model.PartyVendor
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage %ss", use),
	}

	var name, company, email string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a " + use,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				created, err := p.engine.CreateParty(ctx, model.Party{Kind: kind, Name: name, Company: company, Email: email})
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd.OutOrStdout(), created)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", use, created.Name, created.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "name (required)")
	add.Flags().StringVar(&company, "company", "", "company name")
	add.Flags().StringVar(&email, "email", "", "email address")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + use + "s",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				ps, err := p.engine.Parties(ctx, kind)
				if err != nil {
					return err
				}
				return output(cmd, ps, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "NAME\tCOMPANY\tEMAIL\tID")
					for _, p := range ps {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Company, p.Email, p.ID)
					}
				})
			})
		},
	}

	open := &cobra.Command{
		Use:   "open-items <id>",
		Short: "List unpaid documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				items, err := p.engine.OpenItems(ctx, args[0])
				if err != nil {
					return err
				}
				return output(cmd, items, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "NUMBER\tDATE\tDUE\tTOTAL\tBALANCE\tSTATUS\tID")
					for _, it := range items {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", it.Number, formatDate(it.Date), formatDate(it.DueDate),
							it.Total.StringFixed(2), it.Balance.StringFixed(2), it.Status, it.TransactionID)
					}
				})
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a " + use + " and their open balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(cmd, func(ctx context.Context, p *project) error {
				party, err := p.engine.Party(ctx, args[0])
				if err != nil {
					return err
				}
				balance, err := p.engine.PartyBalance(ctx, party.ID)
				if err != nil {
					return err
				}
				v := struct {
					model.Party
					Balance decimal.Decimal `json:"balance"`
				}{party, balance}
				return output(cmd, v, func(w *tabwriter.Writer) {
					fmt.Fprintf(w, "Name\t%s\n", party.Name)
					fmt.Fprintf(w, "Company\t%s\n", party.Company)
					fmt.Fprintf(w, "Email\t%s\n", party.Email)
					fmt.Fprintf(w, "Open balance\t%s\n", balance.StringFixed(2))
				})
			})
		},
	}

	cmd.AddCommand(add, list, show, open)
	return cmd
}
