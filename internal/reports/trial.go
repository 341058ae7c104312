package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// TrialBalanceRow is one account's posted totals. NetDebit and NetCredit
// hold the difference on whichever side is larger.
type TrialBalanceRow struct {
	AccountID string            `json:"account_id"`
	Number    string            `json:"number"`
	Name      string            `json:"name"`
	Type      model.AccountType `json:"type"`
	Debits    decimal.Decimal   `json:"debits"`
	Credits   decimal.Decimal   `json:"credits"`
	NetDebit  decimal.Decimal   `json:"net_debit"`
	NetCredit decimal.Decimal   `json:"net_credit"`
}

// TrialBalance lists every account's postings up to AsOf.
type TrialBalance struct {
	AsOf         time.Time         `json:"as_of"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	Balanced     bool              `json:"balanced"`
}

// TrialBalance sums debit and credit postings per account up to asOf. Active
// accounts are always listed; inactive ones only when they carry postings.
func (r *Reporter) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	asOf = r.asOf(asOf)
	out := TrialBalance{AsOf: asOf}
	err := r.store.View(ctx, func(tx *store.Tx) error {
		accts, lines, err := snapshot(ctx, tx, time.Time{}, asOf)
		if err != nil {
			return err
		}
		totals := sums(lines)
		for _, a := range accts {
			act, posted := totals[a.ID]
			if !a.Active && !posted {
				continue
			}
			row := TrialBalanceRow{
				AccountID: a.ID,
				Number:    a.Number,
				Name:      a.Name,
				Type:      a.Type,
				Debits:    act.debit,
				Credits:   act.credit,
			}
			if net := act.debit.Sub(act.credit); net.IsPositive() {
				row.NetDebit = net
			} else {
				row.NetCredit = net.Neg()
			}
			out.Rows = append(out.Rows, row)
			out.TotalDebits = out.TotalDebits.Add(act.debit)
			out.TotalCredits = out.TotalCredits.Add(act.credit)
		}
		return nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	out.Balanced = model.Within(out.TotalDebits, out.TotalCredits)
	return out, nil
}
