package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/ledgertest"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

func newAggregator(t *testing.T) (*Aggregator, *ledgertest.Ledger) {
	l := ledgertest.New(t)
	return NewAggregator(l.Poster, l.Settings), l
}

func linesOf(t *testing.T, l *ledgertest.Ledger, txnID string) map[string]model.JournalLine {
	t.Helper()
	lines, err := l.Poster.Lines(context.Background(), store.LineFilter{TransactionID: txnID})
	require.NoError(t, err)
	out := make(map[string]model.JournalLine, len(lines))
	for _, ln := range lines {
		out[ln.AccountID] = ln
	}
	return out
}

func TestInvoiceWithTax(t *testing.T) {
	agg, l := newAggregator(t)
	income := l.Account("4010")

	res, err := agg.BuildAndPost(context.Background(), model.Invoice{
		CustomerID: l.Customer.ID,
		Date:       ledgertest.Date("2025-01-15"),
		TaxRate:    dec("10"),
		Items:      []model.LineItem{{Description: "Consulting", Quantity: qty("1"), Rate: dec("100"), AccountID: income}},
	})
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(dec("110")))
	assert.Equal(t, "INV-2025-01-001", res.Number)

	lines := linesOf(t, l, res.TransactionID)
	require.Len(t, lines, 3)
	assert.True(t, lines[l.Settings.ReceivableAccountID].Debit.Equal(dec("110")))
	assert.True(t, lines[income].Credit.Equal(dec("100")))
	assert.True(t, lines[l.Settings.SalesTaxAccountID].Credit.Equal(dec("10")))

	assert.True(t, l.Balance(t, l.Settings.ReceivableAccountID).Equal(dec("110")))
	assert.True(t, l.Balance(t, l.Settings.SalesTaxAccountID).Equal(dec("10")))
}

func TestBillMirrorsInvoice(t *testing.T) {
	agg, l := newAggregator(t)
	office := l.Account("5010")

	res, err := agg.BuildAndPost(context.Background(), model.Bill{
		VendorID: l.Vendor.ID,
		Date:     ledgertest.Date("2025-02-03"),
		TaxRate:  dec("5"),
		Items:    []model.LineItem{{Description: "Paper", Quantity: qty("4"), Rate: dec("25"), AccountID: office}},
	})
	require.NoError(t, err)
	assert.Equal(t, "BIL-2025-02-001", res.Number)

	lines := linesOf(t, l, res.TransactionID)
	assert.True(t, lines[l.Settings.PayableAccountID].Credit.Equal(dec("105")))
	assert.True(t, lines[office].Debit.Equal(dec("100")))
	assert.True(t, lines[l.Settings.PurchaseTaxAccount()].Debit.Equal(dec("5")))

	assert.True(t, l.Balance(t, l.Settings.PayableAccountID).Equal(dec("105")))
	assert.True(t, l.Balance(t, office).Equal(dec("100")))
}

func TestSalesReceiptDefaultsToUndepositedFunds(t *testing.T) {
	agg, l := newAggregator(t)
	ctx := context.Background()

	res, err := agg.BuildAndPost(ctx, model.SalesReceipt{
		CustomerID: l.Customer.ID,
		Date:       ledgertest.Date("2025-03-01"),
		Items:      []model.LineItem{{Description: "Widget", Rate: dec("40"), AccountID: l.Account("4010")}},
	})
	require.NoError(t, err)
	assert.True(t, l.Balance(t, l.Settings.UndepositedFundsID).Equal(dec("40")))

	var tr model.Transaction
	require.NoError(t, l.Store.View(ctx, func(tx *store.Tx) error {
		var err error
		tr, err = tx.Transaction(ctx, res.TransactionID)
		return err
	}))
	assert.Equal(t, model.StatusUndeposited, tr.Status)
	assert.Equal(t, l.Settings.UndepositedFundsID, tr.DepositAccountID)

	res, err = agg.BuildAndPost(ctx, model.SalesReceipt{
		CustomerID:       l.Customer.ID,
		Date:             ledgertest.Date("2025-03-02"),
		DepositAccountID: l.Account(accounts.NumberChecking),
		Items:            []model.LineItem{{Description: "Widget", Rate: dec("10"), AccountID: l.Account("4010")}},
	})
	require.NoError(t, err)
	assert.True(t, l.Balance(t, l.Account(accounts.NumberChecking)).Equal(dec("10")))
}

func TestZeroAmountLinesSkipped(t *testing.T) {
	agg, l := newAggregator(t)
	income := l.Account("4010")
	service := l.Account("4020")

	res, err := agg.BuildAndPost(context.Background(), model.Invoice{
		CustomerID: l.Customer.ID,
		Date:       ledgertest.Date("2025-01-15"),
		Items: []model.LineItem{
			{Description: "Consulting", Rate: dec("100"), AccountID: income},
			{Description: "Courtesy call", Rate: dec("0"), AccountID: service},
		},
	})
	require.NoError(t, err)
	lines := linesOf(t, l, res.TransactionID)
	assert.Len(t, lines, 2)
	_, ok := lines[service]
	assert.False(t, ok)
}

func TestJournalEntry(t *testing.T) {
	agg, l := newAggregator(t)
	ctx := context.Background()
	expense := l.Account("5010")
	checking := l.Account(accounts.NumberChecking)

	res, err := agg.BuildAndPost(ctx, model.JournalEntry{
		Date: ledgertest.Date("2025-03-01"),
		Memo: "rent",
		Lines: []model.JournalLine{
			model.DebitLine(expense, dec("500"), ""),
			model.CreditLine(checking, dec("500"), ""),
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(dec("500")))
	assert.True(t, l.Balance(t, checking).Equal(dec("-500")))

	_, err = agg.BuildAndPost(ctx, model.JournalEntry{
		Date: ledgertest.Date("2025-03-01"),
		Lines: []model.JournalLine{
			model.DebitLine(expense, dec("500"), ""),
			model.CreditLine(checking, dec("400"), ""),
		},
	})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnbalancedEntry, e.Kind)
	assert.True(t, e.Delta.Equal(dec("100")))
	assert.True(t, l.Balance(t, checking).Equal(dec("-500")), "failed entry leaves balances alone")
}

func TestBuildAndPostErrors(t *testing.T) {
	agg, l := newAggregator(t)
	income := l.Account("4010")
	day := ledgertest.Date("2025-01-15")
	item := model.LineItem{Description: "Consulting", Rate: dec("100"), AccountID: income}

	tests := []struct {
		name string
		doc  model.Document
		kind apperr.Kind
	}{
		{"invoice without customer", model.Invoice{Date: day, Items: []model.LineItem{item}}, apperr.KindInvalidCounterparty},
		{"invoice to a vendor", model.Invoice{CustomerID: l.Vendor.ID, Date: day, Items: []model.LineItem{item}}, apperr.KindInvalidCounterparty},
		{"bill from a customer", model.Bill{VendorID: l.Customer.ID, Date: day, Items: []model.LineItem{item}}, apperr.KindInvalidCounterparty},
		{"unknown customer", model.Invoice{CustomerID: "ghost", Date: day, Items: []model.LineItem{item}}, apperr.KindNotFound},
		{"no items", model.Invoice{CustomerID: l.Customer.ID, Date: day}, apperr.KindIncompleteLineItem},
		{"item without account", model.Invoice{CustomerID: l.Customer.ID, Date: day,
			Items: []model.LineItem{{Description: "x", Rate: dec("1")}}}, apperr.KindIncompleteLineItem},
		{"item without description", model.Bill{VendorID: l.Vendor.ID, Date: day,
			Items: []model.LineItem{{Rate: dec("1"), AccountID: l.Account("5010")}}}, apperr.KindIncompleteLineItem},
		{"negative rate", model.Invoice{CustomerID: l.Customer.ID, Date: day,
			Items: []model.LineItem{{Description: "refund", Rate: dec("-5"), AccountID: income}}}, apperr.KindInvalidAmount},
		{"all zero", model.Invoice{CustomerID: l.Customer.ID, Date: day,
			Items: []model.LineItem{{Description: "free", AccountID: income}}}, apperr.KindInvalidAmount},
		{"journal line without account", model.JournalEntry{Date: day,
			Lines: []model.JournalLine{{Debit: dec("1")}}}, apperr.KindIncompleteLineItem},
		{"payment routed here", model.CustomerPayment{CustomerID: l.Customer.ID, Date: day}, apperr.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.BuildAndPost(context.Background(), tt.doc)
			assert.Equal(t, tt.kind, apperr.KindOf(err), "got %v", err)
		})
	}

	assert.True(t, l.Balance(t, l.Settings.ReceivableAccountID).IsZero())
}
