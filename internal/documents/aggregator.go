package documents

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/parties"
	"github.com/cleared-dev/tally/internal/store"
)

// Aggregator builds invoices, sales receipts, bills and journal entries and
// hands them to the poster.
type Aggregator struct {
	poster   *journal.Poster
	settings model.Settings
}

// NewAggregator creates an Aggregator using the company account references
// in settings.
func NewAggregator(poster *journal.Poster, settings model.Settings) *Aggregator {
	return &Aggregator{poster: poster, settings: settings}
}

// BuildAndPost computes totals for doc, maps it to journal lines and posts
// it. Payments and deposits are handled by the payments package.
func (a *Aggregator) BuildAndPost(ctx context.Context, doc model.Document) (journal.Result, error) {
	switch d := doc.(type) {
	case model.Invoice:
		return a.postItems(ctx, itemized{
			typ: model.TypeInvoice, partyID: d.CustomerID, date: d.Date, dueDate: d.DueDate,
			items: d.Items, taxRate: d.TaxRate, memo: d.Memo,
			contraAccount: a.settings.ReceivableAccountID, taxAccount: a.settings.SalesTaxAccountID,
		})
	case model.SalesReceipt:
		doc := itemized{
			typ: model.TypeSalesReceipt, partyID: d.CustomerID, date: d.Date,
			items: d.Items, taxRate: d.TaxRate, memo: d.Memo,
			contraAccount: d.DepositAccountID, taxAccount: a.settings.SalesTaxAccountID,
		}
		if doc.contraAccount == "" || doc.contraAccount == a.settings.UndepositedFundsID {
			doc.contraAccount = a.settings.UndepositedFundsID
			doc.status = model.StatusUndeposited
		}
		return a.postItems(ctx, doc)
	case model.Bill:
		return a.postItems(ctx, itemized{
			typ: model.TypeBill, partyID: d.VendorID, date: d.Date, dueDate: d.DueDate,
			items: d.Items, taxRate: d.TaxRate, memo: d.Memo,
			contraAccount: a.settings.PayableAccountID, taxAccount: a.settings.PurchaseTaxAccount(),
		})
	case model.JournalEntry:
		return a.postJournal(ctx, d)
	case nil:
		return journal.Result{}, apperr.New(apperr.KindInvalidInput, "no document")
	default:
		return journal.Result{}, apperr.New(apperr.KindInvalidInput, "%s documents are not posted here", doc.DocumentType())
	}
}

// itemized is the common shape of sales and purchase documents.
type itemized struct {
	typ           model.TransactionType
	partyID       string
	date          time.Time
	dueDate       time.Time
	items         []model.LineItem
	taxRate       decimal.Decimal
	memo          string
	contraAccount string // AR, AP or the deposit account
	taxAccount    string
	status        model.TransactionStatus
}

func (d itemized) purchase() bool {
	return d.typ == model.TypeBill
}

func (d itemized) partyKind() model.PartyKind {
	if d.purchase() {
		return model.PartyVendor
	}
	return model.PartyCustomer
}

func (a *Aggregator) postItems(ctx context.Context, d itemized) (journal.Result, error) {
	kind := d.partyKind()
	if d.partyID == "" {
		return journal.Result{}, apperr.New(apperr.KindInvalidCounterparty, "%s requires a %s", d.typ, kind)
	}
	if err := checkItems(d.typ, d.items); err != nil {
		return journal.Result{}, err
	}
	if d.taxRate.IsNegative() {
		return journal.Result{}, apperr.New(apperr.KindInvalidAmount, "tax rate %s is negative", d.taxRate)
	}

	totals := Compute(d.items, d.taxRate)
	if !totals.Total.IsPositive() {
		return journal.Result{}, apperr.New(apperr.KindInvalidAmount, "%s total must be positive", d.typ)
	}
	if totals.Tax.IsPositive() && d.taxAccount == "" {
		return journal.Result{}, apperr.New(apperr.KindInvalidInput, "no tax account configured")
	}
	if d.contraAccount == "" {
		return journal.Result{}, apperr.New(apperr.KindInvalidInput, "no %s contra account configured", d.typ)
	}

	lines := mapLines(d, totals)

	t := model.Transaction{
		Type:     d.typ,
		Status:   d.status,
		Date:     d.date,
		DueDate:  d.dueDate,
		Items:    totals.Items,
		TaxRate:  d.taxRate,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		Memo:     d.memo,
	}
	if d.purchase() {
		t.VendorID = d.partyID
	} else {
		t.CustomerID = d.partyID
	}
	if d.typ == model.TypeSalesReceipt {
		t.DepositAccountID = d.contraAccount
	}

	return a.poster.Post(ctx, journal.Entry{
		Transaction: t,
		Lines:       lines,
		Prepare: func(ctx context.Context, tx *store.Tx) error {
			_, err := parties.Require(ctx, tx, d.partyID, kind)
			return err
		},
	})
}

// mapLines builds the journal lines of a sales or purchase document. Sales
// debit the contra account for the total and credit income and tax;
// purchases mirror that through the payable account. Zero-amount lines are
// kept on the document but produce no journal line.
func mapLines(d itemized, totals Totals) []model.JournalLine {
	side := func(account string, amt decimal.Decimal, desc string, contra bool) model.JournalLine {
		debit := contra != d.purchase()
		if debit {
			return model.DebitLine(account, amt, desc)
		}
		return model.CreditLine(account, amt, desc)
	}

	lines := []model.JournalLine{side(d.contraAccount, totals.Total, d.memo, true)}
	for _, it := range totals.Items {
		if it.Amount.IsZero() {
			continue
		}
		lines = append(lines, side(it.AccountID, it.Amount, it.Description, false))
	}
	if totals.Tax.IsPositive() {
		lines = append(lines, side(d.taxAccount, totals.Tax, "Tax", false))
	}
	return lines
}

// checkItems enforces line completeness for itemized documents.
func checkItems(typ model.TransactionType, items []model.LineItem) error {
	if len(items) == 0 {
		return apperr.New(apperr.KindIncompleteLineItem, "%s has no line items", typ)
	}
	for i, it := range items {
		if it.AccountID == "" {
			return apperr.New(apperr.KindIncompleteLineItem, "line %d has no account", i+1)
		}
		if strings.TrimSpace(it.Description) == "" {
			return apperr.New(apperr.KindIncompleteLineItem, "line %d has no description", i+1).WithAccount(it.AccountID)
		}
		if it.Quantity.Decimal.IsNegative() || it.Rate.IsNegative() {
			return apperr.New(apperr.KindInvalidAmount, "line %d has a negative quantity or rate", i+1).WithAccount(it.AccountID)
		}
	}
	return nil
}

func (a *Aggregator) postJournal(ctx context.Context, d model.JournalEntry) (journal.Result, error) {
	if len(d.Lines) == 0 {
		return journal.Result{}, apperr.New(apperr.KindIncompleteLineItem, "journal entry has no lines")
	}
	for i, l := range d.Lines {
		if l.AccountID == "" {
			return journal.Result{}, apperr.New(apperr.KindIncompleteLineItem, "line %d has no account", i+1)
		}
	}
	if d.CustomerID != "" && d.VendorID != "" {
		return journal.Result{}, apperr.New(apperr.KindInvalidCounterparty, "journal entry names both a customer and a vendor")
	}

	lines := make([]model.JournalLine, len(d.Lines))
	for i, l := range d.Lines {
		if l.Description == "" {
			l.Description = d.Memo
		}
		lines[i] = l
	}

	return a.poster.Post(ctx, journal.Entry{
		Transaction: model.Transaction{
			Type:       model.TypeJournal,
			Date:       d.Date,
			CustomerID: d.CustomerID,
			VendorID:   d.VendorID,
			Memo:       d.Memo,
		},
		Lines: lines,
		Prepare: func(ctx context.Context, tx *store.Tx) error {
			var err error
			switch {
			case d.CustomerID != "":
				_, err = parties.Require(ctx, tx, d.CustomerID, model.PartyCustomer)
			case d.VendorID != "":
				_, err = parties.Require(ctx, tx, d.VendorID, model.PartyVendor)
			}
			return err
		},
	})
}
