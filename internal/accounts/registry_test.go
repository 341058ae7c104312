package accounts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewRegistry(s), s
}

func TestCreateAndGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	a, err := reg.Create(ctx, model.Account{Number: "1010", Name: " Checking ", Type: model.AccountTypeAsset, Balance: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Checking", a.Name)
	assert.True(t, a.Balance.IsZero(), "balance is only moved by posting")
	assert.Equal(t, model.DetailOther, a.Detail)

	got, err := reg.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)

	byNum, err := reg.ByNumber(ctx, "1010")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byNum.ID)
}

func TestCreateValidation(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Create(ctx, model.Account{Name: "", Type: model.AccountTypeAsset})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = reg.Create(ctx, model.Account{Name: "X", Type: "Revenue"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = reg.Create(ctx, model.Account{Name: "X", Type: model.AccountTypeAsset, OpeningBalance: decimal.RequireFromString("1.005")})
	assert.True(t, apperr.Is(err, apperr.KindInvalidAmount))

	_, err = reg.Create(ctx, model.Account{Name: "X", Type: model.AccountTypeAsset, ParentID: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	parent, err := reg.Create(ctx, model.Account{Name: "Cash", Type: model.AccountTypeAsset})
	require.NoError(t, err)
	_, err = reg.Create(ctx, model.Account{Name: "Loan", Type: model.AccountTypeLiability, ParentID: parent.ID})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestDeactivateIsSoft(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	a, err := reg.Create(ctx, model.Account{Name: "Travel", Type: model.AccountTypeExpense})
	require.NoError(t, err)
	require.NoError(t, reg.Deactivate(ctx, a.ID))

	active, err := reg.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := reg.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)

	require.NoError(t, reg.Reactivate(ctx, a.ID))
	got, err := reg.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	assert.True(t, apperr.Is(reg.Deactivate(ctx, "missing"), apperr.KindNotFound))
}

func TestByType(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, a := range DefaultChart("llc_single_member") {
		_, err := reg.Create(ctx, a)
		require.NoError(t, err)
	}

	expenses, err := reg.ByType(ctx, model.AccountTypeExpense)
	require.NoError(t, err)
	assert.Len(t, expenses, 3)
	for _, a := range expenses {
		assert.Equal(t, model.AccountTypeExpense, a.Type)
	}
}

func TestCheckSettings(t *testing.T) {
	reg, s := newTestRegistry(t)
	ctx := context.Background()

	var created []model.Account
	for _, a := range DefaultChart("") {
		c, err := reg.Create(ctx, a)
		require.NoError(t, err)
		created = append(created, c)
	}
	settings := DefaultSettings(created, "01-01")
	assert.NotEmpty(t, settings.ReceivableAccountID)

	err := s.View(ctx, func(tx *store.Tx) error { return CheckSettings(ctx, tx, settings) })
	require.NoError(t, err)

	swapped := settings
	swapped.ReceivableAccountID = settings.PayableAccountID
	err = s.View(ctx, func(tx *store.Tx) error { return CheckSettings(ctx, tx, swapped) })
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	badYear := settings
	badYear.FiscalYearStart = "13-40"
	err = s.View(ctx, func(tx *store.Tx) error { return CheckSettings(ctx, tx, badYear) })
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}
