package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/ledgertest"
	"github.com/cleared-dev/tally/internal/model"
)

var (
	dec  = ledgertest.Dec
	date = ledgertest.Date
)

type fixture struct {
	*ledgertest.Ledger
	eng  *Engine
	bank string
}

// newFixture adds a savings account opened at $800.
func newFixture(t *testing.T) *fixture {
	l := ledgertest.New(t)
	acct, err := l.Accounts.Create(context.Background(), model.Account{
		Number:         "1030",
		Name:           "Savings",
		Type:           model.AccountTypeAsset,
		Detail:         model.DetailSavings,
		OpeningBalance: dec("800"),
		OpeningDate:    date("2025-01-01"),
	})
	require.NoError(t, err)
	return &fixture{Ledger: l, eng: New(l.Store), bank: acct.ID}
}

func (f *fixture) importRows(t *testing.T, rows ...model.BankTransaction) []model.BankTransaction {
	t.Helper()
	res, err := f.eng.Import(context.Background(), f.bank, rows)
	require.NoError(t, err)
	return res.Imported
}

func row(ref, amount string) model.BankTransaction {
	return model.BankTransaction{Date: date("2025-01-15"), Description: ref, Amount: dec(amount), Reference: ref}
}

func TestImport_Dedup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.eng.Import(ctx, f.bank, []model.BankTransaction{row("a", "100"), row("b", "-20")})
	require.NoError(t, err)
	assert.Len(t, first.Imported, 2)
	assert.Zero(t, first.Skipped)
	for _, b := range first.Imported {
		assert.Equal(t, model.BankUnmatched, b.State)
		assert.Equal(t, f.bank, b.AccountID)
		assert.NotEmpty(t, b.ID)
	}

	second, err := f.eng.Import(ctx, f.bank, []model.BankTransaction{row("a", "100"), row("c", "5")})
	require.NoError(t, err)
	assert.Len(t, second.Imported, 1)
	assert.Equal(t, 1, second.Skipped)

	all, err := f.eng.BankTransactions(ctx, f.bank)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestImport_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.Import(ctx, f.bank, []model.BankTransaction{row("", "1")})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.eng.Import(ctx, f.bank, []model.BankTransaction{row("x", "1.005")})
	assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))

	_, err = f.eng.Import(ctx, "missing", []model.BankTransaction{row("x", "1")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, f.Accounts.Deactivate(ctx, f.bank))
	_, err = f.eng.Import(ctx, f.bank, []model.BankTransaction{row("x", "1")})
	assert.Equal(t, apperr.KindInactiveAccount, apperr.KindOf(err))
}

func TestMatchAndUnmatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.importRows(t, row("dep", "150"))[0]

	onBank := f.Post(t, date("2025-01-15"), f.bank, f.Account("4010"), "150")
	elsewhere := f.Post(t, date("2025-01-15"), f.Account(accounts.NumberChecking), f.Account("4010"), "150")

	_, err := f.eng.Match(ctx, b.ID, elsewhere.TransactionID)
	assert.Equal(t, apperr.KindAccountMismatch, apperr.KindOf(err))

	_, err = f.eng.Match(ctx, b.ID, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	matched, err := f.eng.Match(ctx, b.ID, onBank.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.BankMatched, matched.State)
	assert.Equal(t, onBank.TransactionID, matched.MatchedTransactionID)

	unmatched, err := f.eng.Unmatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BankUnmatched, unmatched.State)
	assert.Empty(t, unmatched.MatchedTransactionID)
}

func TestOpenSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.eng.OpenSession(ctx, f.bank, date("2025-01-31"), dec("1000"))
	require.NoError(t, err)
	assert.True(t, dec("800").Equal(s.OpeningBalance))
	assert.Equal(t, model.SessionInProgress, s.Status)

	_, err = f.eng.OpenSession(ctx, f.bank, date("2025-02-28"), dec("1200"))
	assert.Equal(t, apperr.KindSessionAlreadyOpen, apperr.KindOf(err))

	_, err = f.eng.OpenSession(ctx, f.bank, date("2025-02-28"), dec("1.001"))
	assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
}

func TestSetReconciled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := f.importRows(t, row("a", "100"))
	s, err := f.eng.OpenSession(ctx, f.bank, date("2025-01-31"), dec("900"))
	require.NoError(t, err)

	marked, err := f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, marked.SessionID)
	assert.Equal(t, model.BankMatched, marked.State)

	again, err := f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, marked, again)

	cleared, err := f.eng.SetReconciled(ctx, rows[0].ID, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.SessionID)
	assert.Equal(t, model.BankUnmatched, cleared.State)

	_, err = f.eng.SetReconciled(ctx, "missing", s.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSetReconciled_AccountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := f.importRows(t, row("a", "100"))

	s, err := f.eng.OpenSession(ctx, f.Account(accounts.NumberChecking), date("2025-01-31"), dec("100"))
	require.NoError(t, err)

	_, err = f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindAccountMismatch, ae.Kind)
	assert.Equal(t, f.bank, ae.AccountID)
}

func TestSetReconciled_KeepsLedgerMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.importRows(t, row("dep", "150"))[0]
	posted := f.Post(t, date("2025-01-15"), f.bank, f.Account("4010"), "150")
	_, err := f.eng.Match(ctx, b.ID, posted.TransactionID)
	require.NoError(t, err)

	s, err := f.eng.OpenSession(ctx, f.bank, date("2025-01-31"), dec("950"))
	require.NoError(t, err)
	_, err = f.eng.SetReconciled(ctx, b.ID, s.ID)
	require.NoError(t, err)

	out, err := f.eng.SetReconciled(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.BankMatched, out.State)
	assert.Equal(t, posted.TransactionID, out.MatchedTransactionID)
}

// Statement ends at 1000 against an opening of 800. Marking 150 leaves the
// session 50 short; marking another 50 lets it complete.
func TestCompleteSession_OutOfBalanceThenComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := f.importRows(t, row("a", "150"), row("b", "50"), row("c", "-10"))

	s, err := f.eng.OpenSession(ctx, f.bank, date("2025-01-31"), dec("1000"))
	require.NoError(t, err)

	_, err = f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	require.NoError(t, err)

	_, err = f.eng.CompleteSession(ctx, s.ID)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindOutOfBalance, ae.Kind)
	assert.True(t, dec("50").Equal(ae.Delta), "delta %s", ae.Delta)

	detail, err := f.eng.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionInProgress, detail.Status)
	assert.True(t, dec("950").Equal(detail.Cleared))
	assert.True(t, dec("50").Equal(detail.Difference))

	_, err = f.eng.SetReconciled(ctx, rows[1].ID, s.ID)
	require.NoError(t, err)

	done, err := f.eng.CompleteSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, done.Status)
	assert.True(t, dec("1000").Equal(done.ClearedBalance))
	assert.False(t, done.CompletedAt.IsZero())

	detail, err = f.eng.Session(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, detail.Members, 2)
	for _, m := range detail.Members {
		assert.Equal(t, model.BankReconciled, m.State)
	}

	all, err := f.eng.BankTransactions(ctx, f.bank)
	require.NoError(t, err)
	for _, b := range all {
		if b.ID == rows[2].ID {
			assert.Equal(t, model.BankUnmatched, b.State)
		}
	}
}

func TestCompletedSession_IsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := f.importRows(t, row("a", "200"), row("b", "25"))

	s, err := f.eng.OpenSession(ctx, f.bank, date("2025-01-31"), dec("1000"))
	require.NoError(t, err)
	_, err = f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	require.NoError(t, err)
	_, err = f.eng.CompleteSession(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.eng.SetReconciled(ctx, rows[0].ID, "")
	assert.Equal(t, apperr.KindSessionCompleted, apperr.KindOf(err))

	_, err = f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	assert.Equal(t, apperr.KindSessionCompleted, apperr.KindOf(err), "marking a member again")

	_, err = f.eng.SetReconciled(ctx, rows[1].ID, s.ID)
	assert.Equal(t, apperr.KindSessionCompleted, apperr.KindOf(err))

	_, err = f.eng.Unmatch(ctx, rows[0].ID)
	assert.Equal(t, apperr.KindSessionCompleted, apperr.KindOf(err))

	_, err = f.eng.CompleteSession(ctx, s.ID)
	assert.Equal(t, apperr.KindSessionCompleted, apperr.KindOf(err))

	detail, err := f.eng.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(detail.ClearedBalance))
	assert.Len(t, detail.Members, 1)
}

func TestOpenSession_CarriesLastEndingBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows := f.importRows(t, row("a", "200"))

	s, err := f.eng.OpenSession(ctx, f.bank, date("2025-01-31"), dec("1000"))
	require.NoError(t, err)
	_, err = f.eng.SetReconciled(ctx, rows[0].ID, s.ID)
	require.NoError(t, err)
	_, err = f.eng.CompleteSession(ctx, s.ID)
	require.NoError(t, err)

	next, err := f.eng.OpenSession(ctx, f.bank, date("2025-02-28"), dec("1000"))
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(next.OpeningBalance))

	// An empty statement that did not move completes immediately.
	done, err := f.eng.CompleteSession(ctx, next.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, done.Status)

	sessions, err := f.eng.Sessions(ctx, f.bank)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
