package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/payments"
	"github.com/cleared-dev/tally/internal/store"
)

// PostResult is the outcome of PostTransaction. Allocations and Unapplied
// are set for payments only.
type PostResult struct {
	TransactionID string                `json:"transaction_id"`
	Number        string                `json:"number"`
	Type          model.TransactionType `json:"type"`
	Total         decimal.Decimal       `json:"total"`
	Allocations   []model.Allocation    `json:"allocations,omitempty"`
	Unapplied     decimal.Decimal       `json:"unapplied,omitzero"`
}

// PostTransaction builds and posts any document variant.
func (e *Engine) PostTransaction(ctx context.Context, doc model.Document) (PostResult, error) {
	if doc == nil {
		return PostResult{}, apperr.New(apperr.KindInvalidInput, "document is required")
	}
	typ := doc.DocumentType()

	var (
		res PostResult
		err error
	)
	switch d := doc.(type) {
	case model.CustomerPayment:
		res, err = fromApplied(e.alloc.Receive(ctx, d))
	case model.BillPayment:
		res, err = fromApplied(e.alloc.Pay(ctx, d))
	case model.Deposit:
		res, err = fromResult(e.alloc.Deposit(ctx, d))
	default:
		res, err = fromResult(e.docs.BuildAndPost(ctx, doc))
	}
	res.Type = typ

	e.done("post_transaction", err, zap.String("type", string(typ)),
		zap.String("transaction_id", res.TransactionID), zap.String("total", res.Total.StringFixed(2)))
	if err != nil {
		return PostResult{}, err
	}
	details := fmt.Sprintf("%s total %s", typ, res.Total.StringFixed(2))
	if len(res.Allocations) > 0 {
		details += fmt.Sprintf(", %d allocations", len(res.Allocations))
	}
	e.record("post_transaction", details, res.TransactionID, res.Number)
	return res, nil
}

func fromResult(r journal.Result, err error) (PostResult, error) {
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{TransactionID: r.TransactionID, Number: r.Number, Total: r.Total}, nil
}

func fromApplied(a payments.Applied, err error) (PostResult, error) {
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{
		TransactionID: a.PaymentID,
		Number:        a.Number,
		Total:         a.Total,
		Allocations:   a.Allocations,
		Unapplied:     a.Unapplied,
	}, nil
}

// AutoApplyPayment applies a payment's unapplied remainder to partyID's
// oldest open documents.
func (e *Engine) AutoApplyPayment(ctx context.Context, paymentID, partyID string) (payments.Applied, error) {
	res, err := e.alloc.AutoApply(ctx, paymentID, partyID)
	e.done("auto_apply_payment", err, zap.String("payment_id", paymentID), zap.Int("allocations", len(res.Allocations)))
	if err == nil {
		e.record("auto_apply_payment", allocDetails(res), paymentID, res.Number)
	}
	return res, err
}

// ApplyPaymentManual applies explicit amounts of a payment to documents.
func (e *Engine) ApplyPaymentManual(ctx context.Context, paymentID string, apps []model.Application) (payments.Applied, error) {
	res, err := e.alloc.ApplyManual(ctx, paymentID, apps)
	e.done("apply_payment_manual", err, zap.String("payment_id", paymentID), zap.Int("allocations", len(res.Allocations)))
	if err == nil {
		e.record("apply_payment_manual", allocDetails(res), paymentID, res.Number)
	}
	return res, err
}

func allocDetails(a payments.Applied) string {
	applied := decimal.Zero
	for _, al := range a.Allocations {
		applied = applied.Add(al.Amount)
	}
	return fmt.Sprintf("applied %s in %d allocations, %s unapplied",
		applied.StringFixed(2), len(a.Allocations), a.Unapplied.StringFixed(2))
}

// Reverse posts a mirror-image journal transaction for txnID.
func (e *Engine) Reverse(ctx context.Context, txnID string, date time.Time, memo string) (PostResult, error) {
	if date.IsZero() {
		date = today(e.now())
	}
	res, err := fromResult(e.poster.Reverse(ctx, txnID, date, memo))
	res.Type = model.TypeJournal
	e.done("reverse_transaction", err, zap.String("transaction_id", txnID), zap.String("reversal_id", res.TransactionID))
	if err != nil {
		return PostResult{}, err
	}
	e.record("reverse_transaction", "reverses "+txnID, res.TransactionID, res.Number)
	return res, nil
}

// TransactionDetail is a transaction with its posted lines.
type TransactionDetail struct {
	model.Transaction
	Lines []model.JournalLine `json:"lines"`
}

// Transaction returns a transaction and its journal lines.
func (e *Engine) Transaction(ctx context.Context, txnID string) (TransactionDetail, error) {
	var out TransactionDetail
	err := e.store.View(ctx, func(tx *store.Tx) error {
		t, err := tx.Transaction(ctx, txnID)
		if err != nil {
			return err
		}
		lines, err := tx.JournalLines(ctx, store.LineFilter{TransactionID: txnID})
		if err != nil {
			return err
		}
		out = TransactionDetail{Transaction: t, Lines: lines}
		return nil
	})
	return out, err
}

// Transactions lists transactions matching f.
func (e *Engine) Transactions(ctx context.Context, f store.TransactionFilter) ([]model.Transaction, error) {
	var out []model.Transaction
	err := e.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Transactions(ctx, f)
		return err
	})
	return out, err
}

// Lines returns journal lines matching f.
func (e *Engine) Lines(ctx context.Context, f store.LineFilter) ([]model.JournalLine, error) {
	return e.poster.Lines(ctx, f)
}

// ExportJournal writes the journal lines matching f as CSV.
func (e *Engine) ExportJournal(ctx context.Context, w io.Writer, f store.LineFilter) error {
	return e.poster.Export(ctx, w, f)
}

// OpenItems lists a counterparty's unpaid invoices or bills.
func (e *Engine) OpenItems(ctx context.Context, partyID string) ([]model.OpenItem, error) {
	return e.alloc.OpenItems(ctx, partyID)
}

// PartyBalance is the sum of a counterparty's open item balances.
func (e *Engine) PartyBalance(ctx context.Context, partyID string) (decimal.Decimal, error) {
	return e.alloc.PartyBalance(ctx, partyID)
}

// Allocations lists the allocations of one payment.
func (e *Engine) Allocations(ctx context.Context, paymentID string) ([]model.Allocation, error) {
	return e.alloc.Allocations(ctx, paymentID)
}

// Undeposited lists payments and sales receipts held in undeposited funds.
func (e *Engine) Undeposited(ctx context.Context) ([]model.Transaction, error) {
	return e.alloc.Undeposited(ctx)
}

func today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
