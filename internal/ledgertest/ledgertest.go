// Package ledgertest builds throwaway ledgers for tests: a SQLite file in a
// temp dir, the default chart, company settings and one customer and vendor.
package ledgertest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/parties"
	"github.com/cleared-dev/tally/internal/store"
)

// Ledger is a seeded test ledger.
type Ledger struct {
	Store    *store.Store
	Poster   *journal.Poster
	Accounts *accounts.Registry
	Parties  *parties.Registry
	Settings model.Settings
	Customer model.Party
	Vendor   model.Party

	byNumber map[string]string
}

// New opens a fresh seeded ledger that is closed when the test ends.
func New(t testing.TB) *Ledger {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	l := &Ledger{
		Store:    s,
		Poster:   journal.NewPoster(s),
		Accounts: accounts.NewRegistry(s),
		Parties:  parties.NewRegistry(s),
		byNumber: make(map[string]string),
	}

	var created []model.Account
	for _, a := range accounts.DefaultChart("") {
		c, err := l.Accounts.Create(ctx, a)
		require.NoError(t, err)
		created = append(created, c)
		l.byNumber[c.Number] = c.ID
	}
	l.Settings = accounts.DefaultSettings(created, "01-01")
	require.NoError(t, s.Update(ctx, func(tx *store.Tx) error {
		return tx.PutSettings(ctx, l.Settings)
	}))

	l.Customer, err = l.Parties.Create(ctx, model.Party{Kind: model.PartyCustomer, Name: "Acme Corp"})
	require.NoError(t, err)
	l.Vendor, err = l.Parties.Create(ctx, model.Party{Kind: model.PartyVendor, Name: "Paper Supply Co"})
	require.NoError(t, err)
	return l
}

// Account returns the id of the default-chart account with the given number.
func (l *Ledger) Account(number string) string {
	return l.byNumber[number]
}

// Balance returns the stored running balance of an account.
func (l *Ledger) Balance(t testing.TB, accountID string) decimal.Decimal {
	t.Helper()
	var a model.Account
	require.NoError(t, l.Store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		a, err = tx.Account(context.Background(), accountID)
		return err
	}))
	return a.Balance
}

// Post posts a two-line journal entry moving amount from credit to debit.
func (l *Ledger) Post(t testing.TB, day time.Time, debit, credit, amount string) journal.Result {
	t.Helper()
	amt := Dec(amount)
	res, err := l.Poster.Post(context.Background(), journal.Entry{
		Transaction: model.Transaction{Date: day},
		Lines: []model.JournalLine{
			model.DebitLine(debit, amt, ""),
			model.CreditLine(credit, amt, ""),
		},
	})
	require.NoError(t, err)
	return res
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date parses a YYYY-MM-DD literal.
func Date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
