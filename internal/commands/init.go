package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/logging"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string
	var fiscalStart string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, entityType, fiscalStart, git)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "llc_single_member", "entity type")
	cmd.Flags().StringVar(&fiscalStart, "fiscal-year-start", "01-01", "first day of the fiscal year (MM-DD)")
	cmd.Flags().BoolVar(&git, "git", false, "version exported CSV files in a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, entityType, fiscalStart string, git bool) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already contains %s", dir, config.FileName)
	}

	// Create directory structure.
	dirs := []string{
		"accounts",
		"data",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write tally.yaml.
	cfg := config.Default(name, entityType)
	cfg.Fiscal.YearStart = fiscalStart
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := filepath.Join(dir, config.FileName)
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	e, err := engine.Init(cmd.Context(), cfg.Storage.Path, entityType, fiscalStart, engine.Options{
		Logger: log,
		Audit:  auditlog.New(cfg.Audit.Dir),
		Actor:  "cli",
	})
	if err != nil {
		return err
	}
	defer e.Close()

	n, err := writeChart(cmd.Context(), e, dir)
	if err != nil {
		return err
	}

	// Write .gitignore.
	gitignore := "data/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if git {
		if err := gitops.Init(cmd.Context(), dir); err != nil {
			return err
		}
		if _, err := gitops.CommitAll(cmd.Context(), dir, "init: "+name, gitops.DefaultAuthor); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger for %s at %s (%d accounts)\n", name, dir, n)
	return nil
}
