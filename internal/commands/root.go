package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Double-entry small business ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("dir", ".", "ledger project directory")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of tables")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(),
		newPartyCommand("customer"),
		newPartyCommand("vendor"),
		newPostCommand(),
		newReverseCommand(),
		newPaymentCommand(),
		newDepositCommand(),
		newBankCommand(),
		newReconcileCommand(),
		newReportCommand(),
		newJournalCommand(),
		newExportCommand(),
		newServeCommand(),
	)

	return rootCmd
}
