// Package reports derives read-only financial statements from the ledger.
// Every report is computed inside one read transaction, so it reflects a
// single committed state even while postings continue.
package reports

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Reporter builds reports from one store.
type Reporter struct {
	store    *store.Store
	settings model.Settings
	now      func() time.Time
}

// New creates a Reporter.
func New(s *store.Store, settings model.Settings) *Reporter {
	return &Reporter{store: s, settings: settings, now: time.Now}
}

// Line is one account row of a statement section.
type Line struct {
	AccountID string          `json:"account_id,omitempty"`
	Number    string          `json:"number,omitempty"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Synthetic bool            `json:"synthetic,omitempty"`
}

// Section groups the lines of one account type.
type Section struct {
	Type  model.AccountType `json:"type"`
	Lines []Line            `json:"lines"`
	Total decimal.Decimal   `json:"total"`
}

func (s *Section) add(l Line) {
	s.Lines = append(s.Lines, l)
	s.Total = s.Total.Add(l.Amount)
}

// activity is the summed debit and credit postings of one account.
type activity struct {
	debit, credit decimal.Decimal
}

// sums adds up journal lines per account.
func sums(lines []model.JournalLine) map[string]activity {
	out := make(map[string]activity)
	for _, l := range lines {
		a := out[l.AccountID]
		a.debit = a.debit.Add(l.Debit)
		a.credit = a.credit.Add(l.Credit)
		out[l.AccountID] = a
	}
	return out
}

// snapshot loads every account plus the journal lines in [from, to].
func snapshot(ctx context.Context, tx *store.Tx, from, to time.Time) ([]model.Account, []model.JournalLine, error) {
	accts, err := tx.Accounts(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	lines, err := tx.JournalLines(ctx, store.LineFilter{From: from, To: to})
	if err != nil {
		return nil, nil, err
	}
	slices.SortStableFunc(accts, func(a, b model.Account) int {
		if a.Number != b.Number {
			return compareNumber(a.Number, b.Number)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return accts, lines, nil
}

// compareNumber orders numbered accounts before unnumbered ones.
func compareNumber(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	case a < b:
		return -1
	}
	return 1
}

func (r *Reporter) asOf(t time.Time) time.Time {
	if t.IsZero() {
		n := r.now()
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t
}

// FiscalYearStart returns the first day of the fiscal year containing day.
func FiscalYearStart(fiscalStart string, day time.Time) (time.Time, error) {
	if fiscalStart == "" {
		fiscalStart = "01-01"
	}
	md, err := time.Parse("01-02", fiscalStart)
	if err != nil {
		return time.Time{}, apperr.New(apperr.KindInvalidInput, "fiscal year start %q is not MM-DD", fiscalStart)
	}
	start := time.Date(day.Year(), md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
	if start.After(day) {
		start = start.AddDate(-1, 0, 0)
	}
	return start, nil
}
