// Package accounts is the chart-of-accounts registry.
package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Registry creates, looks up and deactivates accounts. Balances are never
// written here; only the poster moves them.
type Registry struct {
	store *store.Store
	now   func() time.Time
}

// NewRegistry creates a Registry over s.
func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s, now: time.Now}
}

// Create validates and stores a new account with a zero balance. Opening
// balances are recorded on the account but posted separately.
func (r *Registry) Create(ctx context.Context, a model.Account) (model.Account, error) {
	var created model.Account
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		created, err = r.Insert(ctx, tx, a)
		return err
	})
	return created, err
}

// Insert is Create inside an existing store transaction.
func (r *Registry) Insert(ctx context.Context, tx *store.Tx, a model.Account) (model.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return model.Account{}, apperr.New(apperr.KindInvalidInput, "account name is required")
	}
	if !a.Type.Valid() {
		return model.Account{}, apperr.New(apperr.KindInvalidInput, "unknown account type %q", a.Type)
	}
	if !model.HasCentPrecision(a.OpeningBalance) {
		return model.Account{}, apperr.New(apperr.KindInvalidAmount, "opening balance %s has more than 2 decimal places", a.OpeningBalance)
	}
	if a.ParentID != "" {
		parent, err := tx.Account(ctx, a.ParentID)
		if err != nil {
			return model.Account{}, err
		}
		if parent.Type != a.Type {
			return model.Account{}, apperr.New(apperr.KindInvalidInput,
				"parent %s is %s, child is %s", parent.Name, parent.Type, a.Type).WithAccount(parent.ID)
		}
	}
	if a.Detail == "" {
		a.Detail = model.DetailOther
	}
	if a.ID == "" {
		a.ID = id.New()
	}
	a.Balance = decimal.Zero
	a.Active = true
	a.CreatedAt = r.now().UTC()

	if err := tx.InsertAccount(ctx, a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// Get returns an account by id.
func (r *Registry) Get(ctx context.Context, accountID string) (model.Account, error) {
	var a model.Account
	err := r.store.View(ctx, func(tx *store.Tx) error {
		var err error
		a, err = tx.Account(ctx, accountID)
		return err
	})
	return a, err
}

// ByNumber returns the account with the given number.
func (r *Registry) ByNumber(ctx context.Context, number string) (model.Account, error) {
	var a model.Account
	err := r.store.View(ctx, func(tx *store.Tx) error {
		var err error
		a, err = tx.AccountByNumber(ctx, number)
		return err
	})
	return a, err
}

// List returns accounts ordered by number.
func (r *Registry) List(ctx context.Context, includeInactive bool) ([]model.Account, error) {
	var out []model.Account
	err := r.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Accounts(ctx, includeInactive)
		return err
	})
	return out, err
}

// ByType returns the active accounts of the given type.
func (r *Registry) ByType(ctx context.Context, accountType model.AccountType) ([]model.Account, error) {
	all, err := r.List(ctx, false)
	if err != nil {
		return nil, err
	}
	var result []model.Account
	for _, a := range all {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result, nil
}

// Deactivate hides an account from new postings. History is kept.
func (r *Registry) Deactivate(ctx context.Context, accountID string) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		return tx.SetAccountActive(ctx, accountID, false)
	})
}

// Reactivate re-enables a deactivated account.
func (r *Registry) Reactivate(ctx context.Context, accountID string) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		return tx.SetAccountActive(ctx, accountID, true)
	})
}

// settingsRoles lists the account type each settings reference must have.
var settingsRoles = map[string][]model.AccountType{
	"receivable":      {model.AccountTypeAsset},
	"payable":         {model.AccountTypeLiability},
	"undeposited":     {model.AccountTypeAsset},
	"sales_tax":       {model.AccountTypeLiability},
	"purchase_tax":    {model.AccountTypeLiability, model.AccountTypeAsset},
	"opening_balance": {model.AccountTypeEquity},
	"default_bank":    {model.AccountTypeAsset},
}

// CheckSettings verifies that every account referenced by s exists and has
// the type its role requires, and that the fiscal year start parses.
func CheckSettings(ctx context.Context, tx *store.Tx, s model.Settings) error {
	if _, err := time.Parse("01-02", s.FiscalYearStart); err != nil {
		return apperr.New(apperr.KindInvalidInput, "fiscal year start %q is not MM-DD", s.FiscalYearStart)
	}
	for role, accountID := range s.References() {
		a, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		ok := false
		for _, t := range settingsRoles[role] {
			ok = ok || a.Type == t
		}
		if !ok {
			return apperr.New(apperr.KindInvalidInput, "%s account %s has type %s", role, a.Name, a.Type).WithAccount(a.ID)
		}
	}
	return nil
}
