package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAccounts(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		for _, a := range []model.Account{
			{ID: "chk", Number: "1010", Name: "Checking", Type: model.AccountTypeAsset, Detail: model.DetailChecking, Active: true},
			{ID: "inc", Number: "4010", Name: "Sales", Type: model.AccountTypeIncome, Detail: model.DetailSales, Active: true},
		} {
			if err := tx.InsertAccount(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())
}

func TestAccountsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		return tx.SetAccountBalance(ctx, "chk", dec("125.50"))
	}))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		a, err := tx.Account(ctx, "chk")
		require.NoError(t, err)
		assert.Equal(t, model.AccountTypeAsset, a.Type)
		assert.True(t, a.Balance.Equal(dec("125.50")))
		assert.True(t, a.Active)

		byNum, err := tx.AccountByNumber(ctx, "4010")
		require.NoError(t, err)
		assert.Equal(t, "inc", byNum.ID)

		all, err := tx.Accounts(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		return nil
	}))
}

func TestAccountNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.View(ctx, func(tx *Tx) error {
		_, err := tx.Account(ctx, "missing")
		return err
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.SetAccountBalance(ctx, "chk", dec("999")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		a, err := tx.Account(ctx, "chk")
		require.NoError(t, err)
		assert.True(t, a.Balance.IsZero(), "balance change must be rolled back")
		return nil
	}))
}

func TestTransactionWithItemsAndLines(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()
	taxable := true

	tr := model.Transaction{
		ID: "t1", Number: "JRN-2025-01-001", Type: model.TypeJournal, Status: model.StatusPosted,
		Date: date("2025-01-15"), Total: dec("100"),
		Items: []model.LineItem{{Description: "x", Quantity: decimal.NewNullDecimal(dec("1")), Rate: dec("100"), Amount: dec("100"), AccountID: "inc", Taxable: &taxable}},
	}
	lines := []model.JournalLine{
		{TransactionID: "t1", AccountID: "chk", Debit: dec("100"), Date: tr.Date},
		{TransactionID: "t1", AccountID: "inc", Credit: dec("100"), Date: tr.Date},
	}
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		if err := tx.InsertTransaction(ctx, tr); err != nil {
			return err
		}
		return tx.InsertLines(ctx, lines)
	}))
	assert.NotZero(t, lines[0].ID)

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		got, err := tx.Transaction(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		require.NotNil(t, got.Items[0].Taxable)
		assert.True(t, *got.Items[0].Taxable)
		assert.True(t, got.Items[0].Quantity.Valid)
		assert.True(t, got.Items[0].Quantity.Decimal.Equal(dec("1")))
		assert.Equal(t, "2025-01-15", got.Date.Format(model.DateFormat))
		assert.True(t, got.DueDate.IsZero())

		ls, err := tx.JournalLines(ctx, LineFilter{AccountID: "chk", To: date("2025-01-31")})
		require.NoError(t, err)
		require.Len(t, ls, 1)
		assert.True(t, ls[0].Debit.Equal(dec("100")))

		ls, err = tx.JournalLines(ctx, LineFilter{To: date("2025-01-14")})
		require.NoError(t, err)
		assert.Empty(t, ls)

		nums, err := tx.NumbersWithPrefix(ctx, "JRN-2025-01-")
		require.NoError(t, err)
		assert.Equal(t, []string{"JRN-2025-01-001"}, nums)
		return nil
	}))
}

func TestBankDedupByReference(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	b := model.BankTransaction{ID: "b1", AccountID: "chk", Date: date("2025-01-03"), Amount: dec("-12.50"), Reference: "REF1", State: model.BankUnmatched}
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		inserted, err := tx.InsertBankTransaction(ctx, b)
		require.NoError(t, err)
		assert.True(t, inserted)

		b.ID = "b2"
		inserted, err = tx.InsertBankTransaction(ctx, b)
		require.NoError(t, err)
		assert.False(t, inserted)
		return nil
	}))
}

func TestOneOpenSessionPerAccount(t *testing.T) {
	s := openTestStore(t)
	seedAccounts(t, s)
	ctx := context.Background()

	sess := model.ReconciliationSession{ID: "s1", AccountID: "chk", StatementDate: date("2025-01-31"), EndingBalance: dec("10"), Status: model.SessionInProgress}
	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.InsertSession(ctx, sess) }))

	sess.ID = "s2"
	err := s.Update(ctx, func(tx *Tx) error { return tx.InsertSession(ctx, sess) })
	assert.True(t, apperr.Is(err, apperr.KindStorageUnavailable))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		open, ok, err := tx.OpenSession(ctx, "chk")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "s1", open.ID)

		_, ok, err = tx.LastCompletedSession(ctx, "chk")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}
