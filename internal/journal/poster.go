// Package journal is the ledger poster: the only writer of journal lines and
// account balances.
package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Entry is one candidate posting. Prepare runs inside the write transaction
// before validation, Apply after the lines and balances are written; an error
// from either aborts the whole posting.
type Entry struct {
	Transaction model.Transaction
	Lines       []model.JournalLine
	Prepare     func(ctx context.Context, tx *store.Tx) error
	Apply       func(ctx context.Context, tx *store.Tx, t model.Transaction) error
}

// Result describes a committed posting.
type Result struct {
	TransactionID string                     `json:"transaction_id"`
	Number        string                     `json:"number"`
	Total         decimal.Decimal            `json:"total"`
	Balances      map[string]decimal.Decimal `json:"balances"`
}

// Poster validates and commits journal entries.
type Poster struct {
	store *store.Store
	locks *accountLocks
	now   func() time.Time
}

// NewPoster creates a Poster writing to s.
func NewPoster(s *store.Store) *Poster {
	return &Poster{store: s, locks: newAccountLocks(), now: time.Now}
}

// Post validates e and commits its transaction, lines, balance changes and
// Apply side effects atomically. On any error nothing is written.
func (p *Poster) Post(ctx context.Context, e Entry) (Result, error) {
	ids := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		ids[i] = l.AccountID
	}
	unlock := p.locks.lock(ids)
	defer unlock()

	var res Result
	err := p.store.Update(ctx, func(tx *store.Tx) error {
		if e.Prepare != nil {
			if err := e.Prepare(ctx, tx); err != nil {
				return err
			}
		}

		accounts, err := ValidateLines(ctx, e.Lines, tx)
		if err != nil {
			return err
		}

		t := e.Transaction
		if t.ID == "" {
			t.ID = id.New()
		}
		if t.Type == "" {
			t.Type = model.TypeJournal
		}
		if t.Status == "" {
			t.Status = model.StatusPosted
		}
		if t.Number == "" {
			if t.Number, err = NextNumber(ctx, tx, t.Type, t.Date); err != nil {
				return err
			}
		}
		if t.Total.IsZero() {
			t.Total, _ = Totals(e.Lines)
		}
		t.CreatedAt = p.now().UTC()

		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}

		lines := make([]model.JournalLine, len(e.Lines))
		for i, l := range e.Lines {
			l.TransactionID = t.ID
			l.Date = t.Date
			lines[i] = l
		}
		if err := tx.InsertLines(ctx, lines); err != nil {
			return err
		}

		balances := make(map[string]decimal.Decimal, len(accounts))
		for _, l := range lines {
			a := accounts[l.AccountID]
			a.Balance = a.Balance.Add(a.Type.SignedDelta(l.Debit, l.Credit))
			accounts[l.AccountID] = a
			balances[a.ID] = a.Balance
		}
		for accountID, bal := range balances {
			if err := tx.SetAccountBalance(ctx, accountID, bal); err != nil {
				return err
			}
		}

		if e.Apply != nil {
			if err := e.Apply(ctx, tx, t); err != nil {
				return err
			}
		}

		res = Result{TransactionID: t.ID, Number: t.Number, Total: t.Total, Balances: balances}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// NextNumber allocates the next document number for a type and month. It must
// run inside the write transaction that inserts the document.
func NextNumber(ctx context.Context, tx *store.Tx, typ model.TransactionType, date time.Time) (string, error) {
	prefix := typ.NumberPrefix()
	numbers, err := tx.NumbersWithPrefix(ctx, id.NumberPeriod(prefix, date.Year(), int(date.Month())))
	if err != nil {
		return "", err
	}
	return id.FormatNumber(prefix, date.Year(), int(date.Month()), id.NextSeq(numbers)), nil
}

// Reverse posts a Journal transaction that mirrors every line of txnID on the
// opposite side. The original lines are left untouched. Transactions with
// payment allocations, deposits and deposited payments cannot be reversed,
// and a transaction is reversed at most once.
func (p *Poster) Reverse(ctx context.Context, txnID string, date time.Time, memo string) (Result, error) {
	var (
		orig  model.Transaction
		lines []model.JournalLine
	)
	err := p.store.View(ctx, func(tx *store.Tx) error {
		var err error
		if orig, err = tx.Transaction(ctx, txnID); err != nil {
			return err
		}
		lines, err = tx.JournalLines(ctx, store.LineFilter{TransactionID: txnID})
		return err
	})
	if err != nil {
		return Result{}, err
	}

	if date.IsZero() {
		date = orig.Date
	}
	if memo == "" {
		memo = "Reversal of " + orig.Number
	}

	mirrored := make([]model.JournalLine, len(lines))
	for i, l := range lines {
		mirrored[i] = model.JournalLine{AccountID: l.AccountID, Debit: l.Credit, Credit: l.Debit, Description: memo}
	}

	return p.Post(ctx, Entry{
		Transaction: model.Transaction{
			Type:       model.TypeJournal,
			Date:       date,
			CustomerID: orig.CustomerID,
			VendorID:   orig.VendorID,
			Memo:       memo,
			ReversesID: orig.ID,
		},
		Lines: mirrored,
		Prepare: func(ctx context.Context, tx *store.Tx) error {
			return checkReversible(ctx, tx, orig)
		},
	})
}

func checkReversible(ctx context.Context, tx *store.Tx, t model.Transaction) error {
	reversed, err := tx.IsReversed(ctx, t.ID)
	if err != nil {
		return err
	}
	if reversed {
		return apperr.New(apperr.KindInvalidInput, "%s is already reversed", t.Number)
	}
	if t.Type == model.TypeDeposit {
		return apperr.New(apperr.KindInvalidInput, "deposit %s cannot be reversed", t.Number)
	}
	if t.Status == model.StatusDeposited {
		return apperr.New(apperr.KindInvalidInput, "%s is included in a deposit", t.Number)
	}
	out, err := tx.AllocationsForPayment(ctx, t.ID)
	if err != nil {
		return err
	}
	in, err := tx.AllocationsForTarget(ctx, t.ID)
	if err != nil {
		return err
	}
	if len(out)+len(in) > 0 {
		return apperr.New(apperr.KindInvalidInput, "%s has payment allocations", t.Number)
	}
	return nil
}

// Lines returns committed journal lines matching f from a read snapshot.
func (p *Poster) Lines(ctx context.Context, f store.LineFilter) ([]model.JournalLine, error) {
	var out []model.JournalLine
	err := p.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.JournalLines(ctx, f)
		return err
	})
	return out, err
}
