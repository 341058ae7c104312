package journal

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

// AccountLookup resolves account ids. *store.Tx satisfies it.
type AccountLookup interface {
	Account(ctx context.Context, id string) (model.Account, error)
}

// ValidateLines checks a candidate line set and returns the first rule it
// breaks, in this order: every account exists and is active; each line
// carries exactly one positive amount with at most two decimal places;
// debits equal credits within tolerance; no account sits on both sides.
// It returns the resolved accounts keyed by id.
func ValidateLines(ctx context.Context, lines []model.JournalLine, accounts AccountLookup) (map[string]model.Account, error) {
	resolved := make(map[string]model.Account, len(lines))
	for _, l := range lines {
		if _, ok := resolved[l.AccountID]; ok {
			continue
		}
		a, err := accounts.Account(ctx, l.AccountID)
		if err != nil {
			return nil, err
		}
		if !a.Active {
			return nil, apperr.New(apperr.KindInactiveAccount, "account %s is inactive", a.Name).WithAccount(a.ID)
		}
		resolved[a.ID] = a
	}

	for _, l := range lines {
		if err := checkAmount(l); err != nil {
			return nil, err
		}
	}

	if len(lines) < 2 {
		return nil, apperr.New(apperr.KindUnbalancedEntry, "entry needs at least two lines, got %d", len(lines))
	}
	debits, credits := Totals(lines)
	if !model.Within(debits, credits) {
		return nil, apperr.New(apperr.KindUnbalancedEntry, "debits (%s) != credits (%s)",
			debits.StringFixed(2), credits.StringFixed(2)).WithAmounts(debits, credits)
	}

	side := make(map[string]bool, len(lines))
	for _, l := range lines {
		prev, seen := side[l.AccountID]
		if seen && prev != l.IsDebit() {
			return nil, apperr.New(apperr.KindDuplicateAccountInEntry,
				"account %s is both debited and credited", resolved[l.AccountID].Name).WithAccount(l.AccountID)
		}
		side[l.AccountID] = l.IsDebit()
	}

	return resolved, nil
}

func checkAmount(l model.JournalLine) error {
	hasDebit := !l.Debit.IsZero()
	hasCredit := !l.Credit.IsZero()
	if hasDebit == hasCredit {
		return apperr.New(apperr.KindInvalidAmount, "line must have exactly one of debit or credit").WithAccount(l.AccountID)
	}
	amt := l.Amount()
	if amt.IsNegative() {
		return apperr.New(apperr.KindInvalidAmount, "amount %s is negative", amt).WithAccount(l.AccountID)
	}
	if !model.HasCentPrecision(amt) {
		return apperr.New(apperr.KindInvalidAmount, "amount %s has more than 2 decimal places", amt).WithAccount(l.AccountID)
	}
	return nil
}

// Totals sums the debit and credit sides of lines.
func Totals(lines []model.JournalLine) (debits, credits decimal.Decimal) {
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}
