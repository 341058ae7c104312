package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// BalanceSheet is the financial position at AsOf.
type BalanceSheet struct {
	AsOf                      time.Time       `json:"as_of"`
	FiscalYearStart           time.Time       `json:"fiscal_year_start"`
	Assets                    Section         `json:"assets"`
	Liabilities               Section         `json:"liabilities"`
	Equity                    Section         `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Balanced                  bool            `json:"balanced"`
}

// Synthetic equity line names.
const (
	RetainedEarningsLine = "Retained Earnings"
	NetIncomeLine        = "Net Income"
)

// BalanceSheet reports asset, liability and equity balances as of asOf.
// Income and expense activity never posts to equity, so equity gets two
// computed lines: retained earnings for everything before the fiscal year
// containing asOf, and net income for the fiscal year to date.
func (r *Reporter) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	asOf = r.asOf(asOf)
	fyStart, err := FiscalYearStart(r.settings.FiscalYearStart, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}

	out := BalanceSheet{
		AsOf:            asOf,
		FiscalYearStart: fyStart,
		Assets:          Section{Type: model.AccountTypeAsset},
		Liabilities:     Section{Type: model.AccountTypeLiability},
		Equity:          Section{Type: model.AccountTypeEquity},
	}
	err = r.store.View(ctx, func(tx *store.Tx) error {
		accts, lines, err := snapshot(ctx, tx, time.Time{}, asOf)
		if err != nil {
			return err
		}

		var prior, current []model.JournalLine
		for _, l := range lines {
			if l.Date.Before(fyStart) {
				prior = append(prior, l)
			} else {
				current = append(current, l)
			}
		}
		retained := netIncome(accts, sums(prior))
		income := netIncome(accts, sums(current))

		totals := sums(lines)
		for _, a := range accts {
			act, posted := totals[a.ID]
			if !a.Active && !posted {
				continue
			}
			l := Line{AccountID: a.ID, Number: a.Number, Name: a.Name, Amount: a.Type.SignedDelta(act.debit, act.credit)}
			switch a.Type {
			case model.AccountTypeAsset:
				out.Assets.add(l)
			case model.AccountTypeLiability:
				out.Liabilities.add(l)
			case model.AccountTypeEquity:
				out.Equity.add(l)
			}
		}
		out.Equity.add(Line{Name: RetainedEarningsLine, Amount: retained, Synthetic: true})
		out.Equity.add(Line{Name: NetIncomeLine, Amount: income, Synthetic: true})
		return nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	out.TotalLiabilitiesAndEquity = out.Liabilities.Total.Add(out.Equity.Total)
	out.Balanced = model.Within(out.Assets.Total, out.TotalLiabilitiesAndEquity)
	return out, nil
}

// IncomeStatement is income and expense activity over [From, To].
type IncomeStatement struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Income    Section         `json:"income"`
	Expenses  Section         `json:"expenses"`
	NetIncome decimal.Decimal `json:"net_income"`
}

// IncomeStatement sums income and expense postings dated within [from, to].
func (r *Reporter) IncomeStatement(ctx context.Context, from, to time.Time) (IncomeStatement, error) {
	to = r.asOf(to)
	if !from.IsZero() && from.After(to) {
		return IncomeStatement{}, apperr.New(apperr.KindInvalidInput, "period start %s is after end %s",
			from.Format(model.DateFormat), to.Format(model.DateFormat))
	}

	out := IncomeStatement{
		From:     from,
		To:       to,
		Income:   Section{Type: model.AccountTypeIncome},
		Expenses: Section{Type: model.AccountTypeExpense},
	}
	err := r.store.View(ctx, func(tx *store.Tx) error {
		accts, lines, err := snapshot(ctx, tx, from, to)
		if err != nil {
			return err
		}
		totals := sums(lines)
		for _, a := range accts {
			act, posted := totals[a.ID]
			if !a.Active && !posted {
				continue
			}
			l := Line{AccountID: a.ID, Number: a.Number, Name: a.Name, Amount: a.Type.SignedDelta(act.debit, act.credit)}
			switch a.Type {
			case model.AccountTypeIncome:
				out.Income.add(l)
			case model.AccountTypeExpense:
				out.Expenses.add(l)
			}
		}
		return nil
	})
	if err != nil {
		return IncomeStatement{}, err
	}
	out.NetIncome = out.Income.Total.Sub(out.Expenses.Total)
	return out, nil
}

// netIncome is income minus expense over the given activity.
func netIncome(accts []model.Account, totals map[string]activity) decimal.Decimal {
	net := decimal.Zero
	for _, a := range accts {
		act, ok := totals[a.ID]
		if !ok {
			continue
		}
		switch a.Type {
		case model.AccountTypeIncome:
			net = net.Add(a.Type.SignedDelta(act.debit, act.credit))
		case model.AccountTypeExpense:
			net = net.Sub(a.Type.SignedDelta(act.debit, act.credit))
		}
	}
	return net
}
