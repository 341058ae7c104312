package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/documents"
	"github.com/cleared-dev/tally/internal/ledgertest"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/payments"
)

var (
	dec  = ledgertest.Dec
	date = ledgertest.Date
)

// seed posts 1000 of 2024 sales, then 500 of sales and 300 of office
// expenses in 2025, all through checking.
func seed(t *testing.T) (*ledgertest.Ledger, *Reporter) {
	l := ledgertest.New(t)
	checking := l.Account("1010")
	l.Post(t, date("2024-11-05"), checking, l.Account("4010"), "1000")
	l.Post(t, date("2025-02-10"), checking, l.Account("4010"), "500")
	l.Post(t, date("2025-03-12"), l.Account("5010"), checking, "300")
	return l, New(l.Store, l.Settings)
}

func findRow(t *testing.T, tb TrialBalance, accountID string) TrialBalanceRow {
	t.Helper()
	for _, r := range tb.Rows {
		if r.AccountID == accountID {
			return r
		}
	}
	t.Fatalf("account %s not in trial balance", accountID)
	return TrialBalanceRow{}
}

func TestTrialBalance(t *testing.T) {
	l, r := seed(t)
	ctx := context.Background()

	tb, err := r.TrialBalance(ctx, date("2025-06-30"))
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assert.True(t, dec("1800").Equal(tb.TotalDebits))
	assert.True(t, dec("1800").Equal(tb.TotalCredits))

	checking := findRow(t, tb, l.Account("1010"))
	assert.True(t, dec("1500").Equal(checking.Debits))
	assert.True(t, dec("300").Equal(checking.Credits))
	assert.True(t, dec("1200").Equal(checking.NetDebit))
	assert.True(t, checking.NetCredit.IsZero())

	sales := findRow(t, tb, l.Account("4010"))
	assert.True(t, dec("1500").Equal(sales.NetCredit))

	// Unused active accounts are still listed.
	travel := findRow(t, tb, l.Account("5020"))
	assert.True(t, travel.Debits.IsZero())

	for i := 1; i < len(tb.Rows); i++ {
		assert.LessOrEqual(t, tb.Rows[i-1].Number, tb.Rows[i].Number)
	}
}

func TestTrialBalance_AsOfAndRepeatable(t *testing.T) {
	_, r := seed(t)
	ctx := context.Background()

	early, err := r.TrialBalance(ctx, date("2024-12-31"))
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(early.TotalDebits))

	a, err := r.TrialBalance(ctx, date("2025-06-30"))
	require.NoError(t, err)
	b, err := r.TrialBalance(ctx, date("2025-06-30"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrialBalance_InactiveAccounts(t *testing.T) {
	l, r := seed(t)
	ctx := context.Background()
	require.NoError(t, l.Accounts.Deactivate(ctx, l.Account("5020")))
	require.NoError(t, l.Accounts.Deactivate(ctx, l.Account("5010")))

	tb, err := r.TrialBalance(ctx, date("2025-06-30"))
	require.NoError(t, err)
	ids := make(map[string]bool)
	for _, row := range tb.Rows {
		ids[row.AccountID] = true
	}
	assert.False(t, ids[l.Account("5020")], "inactive account without postings is hidden")
	assert.True(t, ids[l.Account("5010")], "inactive account with postings stays")
	assert.True(t, tb.Balanced)
}

func TestBalanceSheet(t *testing.T) {
	l, r := seed(t)
	ctx := context.Background()

	bs, err := r.BalanceSheet(ctx, date("2025-06-30"))
	require.NoError(t, err)
	assert.Equal(t, date("2025-01-01"), bs.FiscalYearStart)
	assert.True(t, dec("1200").Equal(bs.Assets.Total))
	assert.True(t, bs.Liabilities.Total.IsZero())
	assert.True(t, bs.Balanced)
	assert.True(t, dec("1200").Equal(bs.TotalLiabilitiesAndEquity))

	synthetic := make(map[string]Line)
	for _, line := range bs.Equity.Lines {
		if line.Synthetic {
			synthetic[line.Name] = line
		}
	}
	require.Len(t, synthetic, 2)
	assert.True(t, dec("1000").Equal(synthetic[RetainedEarningsLine].Amount))
	assert.True(t, dec("200").Equal(synthetic[NetIncomeLine].Amount))

	// Synthetic lines never reach the ledger.
	assert.True(t, l.Balance(t, l.Account("3900")).IsZero())
}

func TestBalanceSheet_FiscalYear(t *testing.T) {
	l, _ := seed(t)
	settings := l.Settings
	settings.FiscalYearStart = "03-01"
	r := New(l.Store, settings)

	bs, err := r.BalanceSheet(context.Background(), date("2025-06-30"))
	require.NoError(t, err)
	assert.Equal(t, date("2025-03-01"), bs.FiscalYearStart)
	for _, line := range bs.Equity.Lines {
		switch line.Name {
		case RetainedEarningsLine:
			assert.True(t, dec("1500").Equal(line.Amount), "retained %s", line.Amount)
		case NetIncomeLine:
			assert.True(t, dec("-300").Equal(line.Amount), "net income %s", line.Amount)
		}
	}
	assert.True(t, bs.Balanced)
}

func TestBalanceSheet_OpeningBalanceEquity(t *testing.T) {
	l := ledgertest.New(t)
	l.Post(t, date("2025-01-01"), l.Account("1010"), l.Account("3000"), "800")
	l.Post(t, date("2025-01-05"), l.Account("1010"), l.Account("2010"), "50")

	bs, err := New(l.Store, l.Settings).BalanceSheet(context.Background(), date("2025-01-31"))
	require.NoError(t, err)
	assert.True(t, dec("850").Equal(bs.Assets.Total))
	assert.True(t, dec("50").Equal(bs.Liabilities.Total))
	assert.True(t, dec("800").Equal(bs.Equity.Total))
	assert.True(t, bs.Balanced)
}

func TestIncomeStatement(t *testing.T) {
	_, r := seed(t)
	ctx := context.Background()

	is, err := r.IncomeStatement(ctx, date("2025-01-01"), date("2025-06-30"))
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(is.Income.Total))
	assert.True(t, dec("300").Equal(is.Expenses.Total))
	assert.True(t, dec("200").Equal(is.NetIncome))

	march, err := r.IncomeStatement(ctx, date("2025-03-01"), date("2025-03-31"))
	require.NoError(t, err)
	assert.True(t, march.Income.Total.IsZero())
	assert.True(t, dec("-300").Equal(march.NetIncome))

	_, err = r.IncomeStatement(ctx, date("2025-07-01"), date("2025-06-30"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-10, BucketCurrent},
		{0, BucketCurrent},
		{1, Bucket1To30},
		{30, Bucket1To30},
		{31, Bucket31To60},
		{60, Bucket31To60},
		{61, Bucket61To90},
		{90, Bucket61To90},
		{91, BucketOver90},
		{400, BucketOver90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.days), "days %d", tt.days)
	}
}

func TestAging(t *testing.T) {
	l := ledgertest.New(t)
	ctx := context.Background()
	agg := documents.NewAggregator(l.Poster, l.Settings)
	alloc := payments.NewAllocator(l.Store, l.Poster, l.Settings)

	invoice := func(day, due, amount string) string {
		res, err := agg.BuildAndPost(ctx, model.Invoice{
			CustomerID: l.Customer.ID,
			Date:       date(day),
			DueDate:    date(due),
			Items:      []model.LineItem{{Description: "Services", Rate: dec(amount), AccountID: l.Account("4020")}},
		})
		require.NoError(t, err)
		return res.TransactionID
	}
	invoice("2025-06-01", "2025-06-30", "100")
	partial := invoice("2025-04-01", "2025-05-15", "200")
	invoice("2024-12-01", "2025-01-01", "300")
	paid := invoice("2025-02-01", "2025-03-01", "50")

	_, err := alloc.Receive(ctx, model.CustomerPayment{
		CustomerID: l.Customer.ID,
		Date:       date("2025-06-10"),
		Amount:     dec("125"),
		Applications: []model.Application{
			{TargetID: partial, Amount: dec("75")},
			{TargetID: paid, Amount: dec("50")},
		},
	})
	require.NoError(t, err)

	rep, err := New(l.Store, l.Settings).Aging(ctx, date("2025-06-30"), AgingReceivable)
	require.NoError(t, err)

	require.Len(t, rep.Documents, 3)
	assert.True(t, dec("100").Equal(rep.Totals[BucketCurrent]))
	assert.True(t, dec("125").Equal(rep.Totals[Bucket31To60]))
	assert.True(t, dec("300").Equal(rep.Totals[BucketOver90]))
	assert.True(t, rep.Totals[Bucket1To30].IsZero())
	assert.True(t, dec("525").Equal(rep.Total))

	require.Len(t, rep.Parties, 1)
	assert.Equal(t, "Acme Corp", rep.Parties[0].PartyName)
	assert.True(t, dec("525").Equal(rep.Parties[0].Total))

	for _, d := range rep.Documents {
		if d.TransactionID == partial {
			assert.Equal(t, 46, d.DaysPastDue)
			assert.Equal(t, Bucket31To60, d.Bucket)
			assert.Equal(t, model.OpenItemPartial, d.Status)
		}
	}

	// Before the payment, the partial invoice is still whole.
	before, err := New(l.Store, l.Settings).Aging(ctx, date("2025-06-05"), AgingReceivable)
	require.NoError(t, err)
	assert.True(t, dec("650").Equal(before.Total))
}

func TestAging_Payable(t *testing.T) {
	l := ledgertest.New(t)
	ctx := context.Background()
	agg := documents.NewAggregator(l.Poster, l.Settings)
	_, err := agg.BuildAndPost(ctx, model.Bill{
		VendorID: l.Vendor.ID,
		Date:     date("2025-05-01"),
		Items:    []model.LineItem{{Description: "Paper", Rate: dec("40"), AccountID: l.Account("5010")}},
	})
	require.NoError(t, err)

	r := New(l.Store, l.Settings)
	rep, err := r.Aging(ctx, date("2025-06-30"), AgingPayable)
	require.NoError(t, err)
	require.Len(t, rep.Documents, 1)
	assert.Equal(t, 60, rep.Documents[0].DaysPastDue, "no due date ages from the bill date")
	assert.True(t, dec("40").Equal(rep.Totals[Bucket31To60]))

	ar, err := r.Aging(ctx, date("2025-06-30"), AgingReceivable)
	require.NoError(t, err)
	assert.Empty(t, ar.Documents)
	assert.True(t, ar.Total.IsZero())

	_, err = r.Aging(ctx, date("2025-06-30"), AgingKind("Other"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestAging_SameNameGroupsByParty(t *testing.T) {
	l := ledgertest.New(t)
	ctx := context.Background()
	agg := documents.NewAggregator(l.Poster, l.Settings)
	twin, err := l.Parties.Create(ctx, model.Party{ID: "zz-acme", Kind: model.PartyCustomer, Name: l.Customer.Name})
	require.NoError(t, err)

	invoice := func(party, due string) string {
		res, err := agg.BuildAndPost(ctx, model.Invoice{
			CustomerID: party,
			Date:       date("2025-01-01"),
			DueDate:    date(due),
			Items:      []model.LineItem{{Description: "Services", Rate: dec("10"), AccountID: l.Account("4020")}},
		})
		require.NoError(t, err)
		return res.TransactionID
	}
	first := invoice(l.Customer.ID, "2025-01-10")
	other := invoice(twin.ID, "2025-02-10")
	last := invoice(l.Customer.ID, "2025-03-10")

	rep, err := New(l.Store, l.Settings).Aging(ctx, date("2025-06-30"), AgingReceivable)
	require.NoError(t, err)
	require.Len(t, rep.Documents, 3)
	var got []string
	for _, d := range rep.Documents {
		got = append(got, d.TransactionID)
	}
	assert.Equal(t, []string{first, last, other}, got)
	assert.Len(t, rep.Parties, 2)
}

func TestFiscalYearStart(t *testing.T) {
	got, err := FiscalYearStart("07-01", date("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, date("2024-07-01"), got)

	got, err = FiscalYearStart("07-01", date("2025-07-01"))
	require.NoError(t, err)
	assert.Equal(t, date("2025-07-01"), got)

	got, err = FiscalYearStart("", date("2025-07-01"))
	require.NoError(t, err)
	assert.Equal(t, date("2025-01-01"), got)

	_, err = FiscalYearStart("13-40", date("2025-07-01"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}
