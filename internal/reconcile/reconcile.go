// Package reconcile matches imported bank transactions against the ledger
// and runs statement reconciliation sessions.
//
// A session is opened per account and statement, bank rows are marked into
// or out of it, and it completes only when the opening balance plus the
// marked amounts equals the statement ending balance. Completed sessions and
// their rows never change again.
package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Engine runs reconciliation against one store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New creates an Engine.
func New(s *store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// ImportResult reports the outcome of a bank import.
type ImportResult struct {
	Imported []model.BankTransaction `json:"imported"`
	Skipped  int                     `json:"skipped"`
}

// Import stores candidate rows for accountID as Unmatched. Rows whose
// reference already exists for the account are skipped.
func (e *Engine) Import(ctx context.Context, accountID string, rows []model.BankTransaction) (ImportResult, error) {
	var res ImportResult
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if !acct.Active {
			return apperr.New(apperr.KindInactiveAccount, "account %s is inactive", acct.Name).WithAccount(acct.ID)
		}

		for i, row := range rows {
			row.Reference = strings.TrimSpace(row.Reference)
			if row.Reference == "" {
				return apperr.New(apperr.KindInvalidInput, "row %d has no reference", i+1)
			}
			if !model.HasCentPrecision(row.Amount) {
				return apperr.New(apperr.KindInvalidAmount, "row %d amount %s has more than 2 decimal places", i+1, row.Amount)
			}
			row.ID = id.New()
			row.AccountID = accountID
			row.State = model.BankUnmatched
			row.SessionID = ""
			row.MatchedTransactionID = ""

			inserted, err := tx.InsertBankTransaction(ctx, row)
			if err != nil {
				return err
			}
			if !inserted {
				res.Skipped++
				continue
			}
			res.Imported = append(res.Imported, row)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// Match links a bank row to a ledger transaction that posts to the row's
// account.
func (e *Engine) Match(ctx context.Context, bankTxnID, ledgerTxnID string) (model.BankTransaction, error) {
	var out model.BankTransaction
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		b, err := tx.BankTransaction(ctx, bankTxnID)
		if err != nil {
			return err
		}
		if b.State == model.BankReconciled {
			return apperr.New(apperr.KindSessionCompleted, "bank transaction %s is already reconciled", b.Reference)
		}
		if _, err := tx.Transaction(ctx, ledgerTxnID); err != nil {
			return err
		}
		lines, err := tx.JournalLines(ctx, store.LineFilter{TransactionID: ledgerTxnID, AccountID: b.AccountID})
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.New(apperr.KindAccountMismatch, "transaction %s does not post to the bank account", ledgerTxnID).WithAccount(b.AccountID)
		}

		b.MatchedTransactionID = ledgerTxnID
		if b.State == model.BankUnmatched {
			b.State = model.BankMatched
		}
		out = b
		return tx.UpdateBankTransaction(ctx, b)
	})
	return out, err
}

// Unmatch removes a bank row's ledger link.
func (e *Engine) Unmatch(ctx context.Context, bankTxnID string) (model.BankTransaction, error) {
	var out model.BankTransaction
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		b, err := tx.BankTransaction(ctx, bankTxnID)
		if err != nil {
			return err
		}
		if b.State == model.BankReconciled {
			return apperr.New(apperr.KindSessionCompleted, "bank transaction %s is already reconciled", b.Reference)
		}
		b.MatchedTransactionID = ""
		if b.SessionID == "" {
			b.State = model.BankUnmatched
		}
		out = b
		return tx.UpdateBankTransaction(ctx, b)
	})
	return out, err
}

// OpenSession starts reconciling accountID against a statement. The opening
// balance is the ending balance of the account's last completed session, or
// the account's opening balance when there is none.
func (e *Engine) OpenSession(ctx context.Context, accountID string, statementDate time.Time, ending decimal.Decimal) (model.ReconciliationSession, error) {
	if !model.HasCentPrecision(ending) {
		return model.ReconciliationSession{}, apperr.New(apperr.KindInvalidAmount, "ending balance %s has more than 2 decimal places", ending)
	}

	var out model.ReconciliationSession
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		acct, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if open, ok, err := tx.OpenSession(ctx, accountID); err != nil {
			return err
		} else if ok {
			ae := apperr.New(apperr.KindSessionAlreadyOpen, "account %s already has session %s in progress", acct.Name, open.ID).WithAccount(accountID)
			ae.ID = open.ID
			return ae
		}

		opening := acct.OpeningBalance
		last, ok, err := tx.LastCompletedSession(ctx, accountID)
		if err != nil {
			return err
		}
		if ok {
			opening = last.EndingBalance
		}

		out = model.ReconciliationSession{
			ID:             id.New(),
			AccountID:      accountID,
			StatementDate:  statementDate,
			EndingBalance:  ending,
			OpeningBalance: opening,
			ClearedBalance: opening,
			Status:         model.SessionInProgress,
			CreatedAt:      e.now().UTC(),
		}
		return tx.InsertSession(ctx, out)
	})
	return out, err
}

// SetReconciled moves a bank row into sessionID, or out of its session when
// sessionID is empty. Repeating a call is a no-op until the session is
// completed.
func (e *Engine) SetReconciled(ctx context.Context, bankTxnID, sessionID string) (model.BankTransaction, error) {
	var out model.BankTransaction
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		b, err := tx.BankTransaction(ctx, bankTxnID)
		if err != nil {
			return err
		}
		if b.State == model.BankReconciled {
			return apperr.New(apperr.KindSessionCompleted, "bank transaction %s belongs to a completed session", b.Reference)
		}
		if b.SessionID == sessionID {
			out = b
			return nil
		}
		if b.SessionID != "" {
			current, err := tx.Session(ctx, b.SessionID)
			if err != nil {
				return err
			}
			if current.Status == model.SessionCompleted {
				return apperr.New(apperr.KindSessionCompleted, "session %s is completed", current.ID)
			}
		}

		if sessionID == "" {
			b.SessionID = ""
			b.State = model.BankUnmatched
			if b.MatchedTransactionID != "" {
				b.State = model.BankMatched
			}
			out = b
			return tx.UpdateBankTransaction(ctx, b)
		}

		s, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status == model.SessionCompleted {
			return apperr.New(apperr.KindSessionCompleted, "session %s is completed", s.ID)
		}
		if s.AccountID != b.AccountID {
			return apperr.New(apperr.KindAccountMismatch, "bank transaction %s is on another account", b.Reference).WithAccount(b.AccountID)
		}
		b.SessionID = sessionID
		b.State = model.BankMatched
		out = b
		return tx.UpdateBankTransaction(ctx, b)
	})
	return out, err
}

// CompleteSession closes a session whose cleared balance matches the
// statement within tolerance. On OutOfBalance the error's Delta is ending
// balance minus cleared balance.
func (e *Engine) CompleteSession(ctx context.Context, sessionID string) (model.ReconciliationSession, error) {
	var out model.ReconciliationSession
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		s, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status == model.SessionCompleted {
			return apperr.New(apperr.KindSessionCompleted, "session %s is already completed", s.ID)
		}

		members, err := tx.SessionMembers(ctx, sessionID)
		if err != nil {
			return err
		}
		cleared := Cleared(s.OpeningBalance, members)
		if !model.Within(cleared, s.EndingBalance) {
			ae := apperr.New(apperr.KindOutOfBalance, "cleared balance %s differs from statement %s",
				cleared.StringFixed(2), s.EndingBalance.StringFixed(2)).
				WithAmounts(s.EndingBalance, cleared).WithAccount(s.AccountID)
			ae.ID = s.ID
			return ae
		}

		s.ClearedBalance = cleared
		s.Status = model.SessionCompleted
		s.CompletedAt = e.now().UTC()
		if err := tx.CompleteSession(ctx, s); err != nil {
			return err
		}
		if err := tx.MarkSessionReconciled(ctx, s.ID); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// Cleared returns opening plus the sum of member amounts.
func Cleared(opening decimal.Decimal, members []model.BankTransaction) decimal.Decimal {
	total := opening
	for _, m := range members {
		total = total.Add(m.Amount)
	}
	return total
}

// SessionDetail is a session with its member rows and running difference.
type SessionDetail struct {
	model.ReconciliationSession
	Members    []model.BankTransaction `json:"members"`
	Cleared    decimal.Decimal         `json:"cleared"`
	Difference decimal.Decimal         `json:"difference"` // ending − cleared
}

// Session returns a session with its current members.
func (e *Engine) Session(ctx context.Context, sessionID string) (SessionDetail, error) {
	var out SessionDetail
	err := e.store.View(ctx, func(tx *store.Tx) error {
		s, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		members, err := tx.SessionMembers(ctx, sessionID)
		if err != nil {
			return err
		}
		cleared := Cleared(s.OpeningBalance, members)
		out = SessionDetail{ReconciliationSession: s, Members: members, Cleared: cleared, Difference: s.EndingBalance.Sub(cleared)}
		return nil
	})
	return out, err
}

// Sessions lists an account's sessions, oldest statement first.
func (e *Engine) Sessions(ctx context.Context, accountID string) ([]model.ReconciliationSession, error) {
	var out []model.ReconciliationSession
	err := e.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		var err error
		out, err = tx.Sessions(ctx, accountID)
		return err
	})
	return out, err
}

// BankTransactions lists an account's imported rows.
func (e *Engine) BankTransactions(ctx context.Context, accountID string) ([]model.BankTransaction, error) {
	var out []model.BankTransaction
	err := e.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		var err error
		out, err = tx.BankTransactions(ctx, accountID)
		return err
	})
	return out, err
}
