package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// CreateAccount adds an account. A non-zero opening balance is posted
// against the opening-balance equity account in the same commit, so the
// account's balance always equals its posted lines.
func (e *Engine) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	var (
		created model.Account
		err     error
	)
	if a.OpeningBalance.IsZero() {
		created, err = e.accounts.Create(ctx, a)
	} else {
		created, err = e.createWithOpening(ctx, a)
	}
	e.done("create_account", err, zap.String("account_id", created.ID), zap.String("name", a.Name))
	if err != nil {
		return model.Account{}, err
	}
	e.record("create_account", fmt.Sprintf("%s %s (%s) opening %s", created.Number, created.Name, created.Type,
		created.OpeningBalance.StringFixed(2)), created.ID, created.Number)
	return created, nil
}

func (e *Engine) createWithOpening(ctx context.Context, a model.Account) (model.Account, error) {
	equity := e.settings.OpeningBalanceAccountID
	if equity == "" {
		return model.Account{}, apperr.New(apperr.KindInvalidInput, "no opening balance equity account configured")
	}
	if !model.HasCentPrecision(a.OpeningBalance) {
		return model.Account{}, apperr.New(apperr.KindInvalidAmount, "opening balance %s has more than 2 decimal places", a.OpeningBalance)
	}
	a.ID = id.New()
	if a.OpeningDate.IsZero() {
		a.OpeningDate = today(e.now())
	}

	// Debit the account when the opening balance grows it on its normal side.
	amount := a.OpeningBalance.Abs()
	debitAccount := a.Type.DebitNormal() == a.OpeningBalance.IsPositive()
	lines := []model.JournalLine{
		model.DebitLine(equity, amount, "Opening balance"),
		model.CreditLine(a.ID, amount, "Opening balance"),
	}
	if debitAccount {
		lines = []model.JournalLine{
			model.DebitLine(a.ID, amount, "Opening balance"),
			model.CreditLine(equity, amount, "Opening balance"),
		}
	}

	var created model.Account
	_, err := e.poster.Post(ctx, journal.Entry{
		Transaction: model.Transaction{
			Type: model.TypeJournal,
			Date: a.OpeningDate,
			Memo: "Opening balance for " + a.Name,
		},
		Lines: lines,
		Prepare: func(ctx context.Context, tx *store.Tx) error {
			var err error
			created, err = e.accounts.Insert(ctx, tx, a)
			return err
		},
	})
	if err != nil {
		return model.Account{}, err
	}
	created.Balance = a.OpeningBalance
	return created, nil
}

// Account returns an account by id.
func (e *Engine) Account(ctx context.Context, accountID string) (model.Account, error) {
	return e.accounts.Get(ctx, accountID)
}

// AccountByNumber returns an account by its chart number.
func (e *Engine) AccountByNumber(ctx context.Context, number string) (model.Account, error) {
	return e.accounts.ByNumber(ctx, number)
}

// Accounts lists the chart of accounts.
func (e *Engine) Accounts(ctx context.Context, includeInactive bool) ([]model.Account, error) {
	return e.accounts.List(ctx, includeInactive)
}

// DeactivateAccount hides an account from new postings.
func (e *Engine) DeactivateAccount(ctx context.Context, accountID string) error {
	err := e.accounts.Deactivate(ctx, accountID)
	e.done("deactivate_account", err, zap.String("account_id", accountID))
	if err == nil {
		e.record("deactivate_account", "", accountID, "")
	}
	return err
}

// ReactivateAccount re-enables an account.
func (e *Engine) ReactivateAccount(ctx context.Context, accountID string) error {
	err := e.accounts.Reactivate(ctx, accountID)
	e.done("reactivate_account", err, zap.String("account_id", accountID))
	if err == nil {
		e.record("reactivate_account", "", accountID, "")
	}
	return err
}

// CreateParty adds a customer or vendor.
func (e *Engine) CreateParty(ctx context.Context, p model.Party) (model.Party, error) {
	created, err := e.parties.Create(ctx, p)
	e.done("create_party", err, zap.String("party_id", created.ID), zap.String("kind", string(p.Kind)))
	if err != nil {
		return model.Party{}, err
	}
	e.record("create_party", fmt.Sprintf("%s %s", created.Kind, created.Name), created.ID, "")
	return created, nil
}

// Party returns a customer or vendor by id.
func (e *Engine) Party(ctx context.Context, partyID string) (model.Party, error) {
	return e.parties.Get(ctx, partyID)
}

// Parties lists customers or vendors. An empty kind lists both.
func (e *Engine) Parties(ctx context.Context, kind model.PartyKind) ([]model.Party, error) {
	return e.parties.List(ctx, kind)
}
