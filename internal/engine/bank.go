package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/reconcile"
)

// ImportBank parses a bank export in the named format and stores its rows
// against accountID. Rows already imported are skipped.
func (e *Engine) ImportBank(ctx context.Context, accountID, format string, r io.Reader) (reconcile.ImportResult, error) {
	p := e.importers.Get(format)
	if p == nil {
		err := apperr.New(apperr.KindInvalidInput, "unknown bank format %q (have %v)", format, e.importers.Formats())
		e.done("import_bank", err, zap.String("format", format))
		return reconcile.ImportResult{}, err
	}
	rows, err := p.Parse(r)
	if err != nil {
		err = apperr.New(apperr.KindInvalidInput, "parsing %s export: %v", format, err)
		e.done("import_bank", err, zap.String("format", format))
		return reconcile.ImportResult{}, err
	}
	return e.ImportBankRows(ctx, accountID, rows)
}

// ImportBankRows stores already-parsed rows against accountID.
func (e *Engine) ImportBankRows(ctx context.Context, accountID string, rows []model.BankTransaction) (reconcile.ImportResult, error) {
	res, err := e.recon.Import(ctx, accountID, rows)
	e.done("import_bank", err, zap.String("account_id", accountID),
		zap.Int("imported", len(res.Imported)), zap.Int("skipped", res.Skipped))
	if err == nil {
		e.record("import_bank", fmt.Sprintf("imported %d, skipped %d", len(res.Imported), res.Skipped), accountID, "")
	}
	return res, err
}

// BankFormats lists the supported bank export formats.
func (e *Engine) BankFormats() []string {
	return e.importers.Formats()
}

// BankTransactions lists an account's imported rows.
func (e *Engine) BankTransactions(ctx context.Context, accountID string) ([]model.BankTransaction, error) {
	return e.recon.BankTransactions(ctx, accountID)
}

// MatchBankTransaction links a bank row to a ledger transaction.
func (e *Engine) MatchBankTransaction(ctx context.Context, bankTxnID, ledgerTxnID string) (model.BankTransaction, error) {
	b, err := e.recon.Match(ctx, bankTxnID, ledgerTxnID)
	e.done("match_bank_transaction", err, zap.String("bank_transaction_id", bankTxnID), zap.String("transaction_id", ledgerTxnID))
	if err == nil {
		e.record("match_bank_transaction", "matched to "+ledgerTxnID, bankTxnID, b.Reference)
	}
	return b, err
}

// UnmatchBankTransaction removes a bank row's ledger link.
func (e *Engine) UnmatchBankTransaction(ctx context.Context, bankTxnID string) (model.BankTransaction, error) {
	b, err := e.recon.Unmatch(ctx, bankTxnID)
	e.done("unmatch_bank_transaction", err, zap.String("bank_transaction_id", bankTxnID))
	if err == nil {
		e.record("unmatch_bank_transaction", "", bankTxnID, b.Reference)
	}
	return b, err
}

// OpenReconciliation starts a statement reconciliation for accountID.
func (e *Engine) OpenReconciliation(ctx context.Context, accountID string, statementDate time.Time, ending decimal.Decimal) (model.ReconciliationSession, error) {
	s, err := e.recon.OpenSession(ctx, accountID, statementDate, ending)
	e.done("open_reconciliation", err, zap.String("account_id", accountID), zap.String("session_id", s.ID))
	if err == nil {
		e.record("open_reconciliation", fmt.Sprintf("statement %s ending %s, opening %s",
			statementDate.Format(model.DateFormat), ending.StringFixed(2), s.OpeningBalance.StringFixed(2)), s.ID, "")
	}
	return s, err
}

// SetBankTransactionReconciled marks a bank row into sessionID, or clears it
// from its session when sessionID is empty.
func (e *Engine) SetBankTransactionReconciled(ctx context.Context, bankTxnID, sessionID string) (model.BankTransaction, error) {
	b, err := e.recon.SetReconciled(ctx, bankTxnID, sessionID)
	e.done("set_bank_transaction_reconciled", err, zap.String("bank_transaction_id", bankTxnID), zap.String("session_id", sessionID))
	if err == nil {
		details := "cleared"
		if sessionID != "" {
			details = "marked in " + sessionID
		}
		e.record("set_bank_transaction_reconciled", details, bankTxnID, b.Reference)
	}
	return b, err
}

// CompleteReconciliation closes a session whose cleared balance matches
// the statement.
func (e *Engine) CompleteReconciliation(ctx context.Context, sessionID string) (model.ReconciliationSession, error) {
	s, err := e.recon.CompleteSession(ctx, sessionID)
	fields := []zap.Field{zap.String("session_id", sessionID)}
	if ae, ok := apperr.As(err); ok && ae.Kind == apperr.KindOutOfBalance {
		fields = append(fields, zap.String("delta", ae.Delta.StringFixed(2)))
	}
	e.done("complete_reconciliation", err, fields...)
	if err == nil {
		e.record("complete_reconciliation", "cleared "+s.ClearedBalance.StringFixed(2), s.ID, "")
	}
	return s, err
}

// Reconciliation returns a session with its members and difference.
func (e *Engine) Reconciliation(ctx context.Context, sessionID string) (reconcile.SessionDetail, error) {
	return e.recon.Session(ctx, sessionID)
}

// Reconciliations lists an account's sessions.
func (e *Engine) Reconciliations(ctx context.Context, accountID string) ([]model.ReconciliationSession, error) {
	return e.recon.Sessions(ctx, accountID)
}
