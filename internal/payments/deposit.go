package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Undeposited lists customer payments and sales receipts still sitting in
// undeposited funds, oldest first. Reversed receipts are left out.
func (a *Allocator) Undeposited(ctx context.Context) ([]model.Transaction, error) {
	var out []model.Transaction
	err := a.store.View(ctx, func(tx *store.Tx) error {
		pending, err := tx.Transactions(ctx, store.TransactionFilter{
			Types:  []model.TransactionType{model.TypePayment, model.TypeSalesReceipt},
			Status: model.StatusUndeposited,
		})
		if err != nil {
			return err
		}
		reversed, err := tx.ReversedIDs(ctx)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if !reversed[p.ID] {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// Deposit moves the listed undeposited payments into a bank account: one
// transaction debiting the bank and crediting undeposited funds, with every
// payment marked Deposited.
func (a *Allocator) Deposit(ctx context.Context, d model.Deposit) (journal.Result, error) {
	if len(d.PaymentIDs) == 0 {
		return journal.Result{}, apperr.New(apperr.KindInvalidInput, "deposit lists no payments")
	}
	bank := d.DepositAccountID
	if bank == "" {
		bank = a.settings.DefaultBankAccountID
	}
	if bank == "" || bank == a.settings.UndepositedFundsID {
		return journal.Result{}, apperr.New(apperr.KindInvalidInput, "deposit needs a bank account other than undeposited funds")
	}

	seen := make(map[string]bool, len(d.PaymentIDs))
	for _, pid := range d.PaymentIDs {
		if seen[pid] {
			return journal.Result{}, apperr.New(apperr.KindInvalidInput, "payment %s listed twice", pid)
		}
		seen[pid] = true
	}

	total, err := a.depositTotal(ctx, d.PaymentIDs)
	if err != nil {
		return journal.Result{}, err
	}

	memo := d.Memo
	if memo == "" {
		memo = "Bank deposit"
	}
	return a.poster.Post(ctx, journal.Entry{
		Transaction: model.Transaction{
			Type:             model.TypeDeposit,
			Date:             d.Date,
			Total:            total,
			Memo:             memo,
			DepositAccountID: bank,
		},
		Lines: []model.JournalLine{
			model.DebitLine(bank, total, memo),
			model.CreditLine(a.settings.UndepositedFundsID, total, memo),
		},
		Prepare: func(ctx context.Context, tx *store.Tx) error {
			// Payments may have been deposited since depositTotal ran.
			again, err := undepositedTotal(ctx, tx, d.PaymentIDs)
			if err != nil {
				return err
			}
			if !again.Equal(total) {
				return apperr.New(apperr.KindInvalidInput, "deposited payments changed").WithAmounts(total, again)
			}
			return nil
		},
		Apply: func(ctx context.Context, tx *store.Tx, t model.Transaction) error {
			for _, pid := range d.PaymentIDs {
				if err := tx.MarkDeposited(ctx, pid, t.ID); err != nil {
					return err
				}
			}
			return nil
		},
	})
}

func (a *Allocator) depositTotal(ctx context.Context, ids []string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := a.store.View(ctx, func(tx *store.Tx) error {
		var err error
		total, err = undepositedTotal(ctx, tx, ids)
		return err
	})
	return total, err
}

func undepositedTotal(ctx context.Context, tx *store.Tx, ids []string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, pid := range ids {
		p, err := tx.Transaction(ctx, pid)
		if err != nil {
			return decimal.Zero, err
		}
		if p.Type != model.TypePayment && p.Type != model.TypeSalesReceipt {
			return decimal.Zero, apperr.New(apperr.KindInvalidInput, "%s is a %s, not a payment", p.Number, p.Type)
		}
		if p.Status != model.StatusUndeposited {
			return decimal.Zero, apperr.New(apperr.KindInvalidInput, "%s is not in undeposited funds", p.Number)
		}
		reversed, err := tx.IsReversed(ctx, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		if reversed {
			return decimal.Zero, apperr.New(apperr.KindInvalidInput, "%s has been reversed", p.Number)
		}
		total = total.Add(p.Total)
	}
	return total, nil
}
