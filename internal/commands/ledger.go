package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/model"
)

// project is an opened ledger plus the config it was opened with.
type project struct {
	dir    string
	cfg    *config.Config
	engine *engine.Engine
	log    *zap.Logger
}

func (p *project) Close() {
	_ = p.engine.Close()
	_ = p.log.Sync()
}

func projectDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// openProject loads tally.yaml from --dir and opens the ledger it names.
func openProject(cmd *cobra.Command, actor string) (*project, error) {
	dir, err := projectDir(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}

	opts := engine.Options{Logger: log, Actor: actor}
	if cfg.Audit.Enabled {
		opts.Audit = auditlog.New(cfg.Audit.Dir)
	}
	e, err := engine.Open(cmd.Context(), cfg.Storage.Path, opts)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &project{dir: dir, cfg: cfg, engine: e, log: log}, nil
}

// withProject opens the project, runs fn and closes it.
func withProject(cmd *cobra.Command, fn func(ctx context.Context, p *project) error) error {
	p, err := openProject(cmd, "cli")
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(cmd.Context(), p)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output prints v as JSON under --json, otherwise through table.
func output(cmd *cobra.Command, v any, table func(w *tabwriter.Writer)) error {
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), v)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// resolveAccount accepts an account number or id.
func resolveAccount(ctx context.Context, e *engine.Engine, ref string) (model.Account, error) {
	if ref == "" {
		return model.Account{}, apperr.New(apperr.KindInvalidInput, "account is required")
	}
	a, err := e.AccountByNumber(ctx, ref)
	if err == nil {
		return a, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return model.Account{}, err
	}
	return e.Account(ctx, ref)
}

// accountID is resolveAccount returning only the id; empty stays empty.
func accountID(ctx context.Context, e *engine.Engine, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	a, err := resolveAccount(ctx, e, ref)
	return a.ID, err
}

// dateFlag parses an optional YYYY-MM-DD flag value.
func dateFlag(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateFormat)
}

func today() time.Time {
	n := time.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
