package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const accountColumns = `id, number, name, type, detail, COALESCE(parent_id, ''), balance,
	opening_balance, opening_date, active, created_at`

// InsertAccount adds an account row.
func (t *Tx) InsertAccount(ctx context.Context, a model.Account) error {
	_, err := t.exec(ctx, "inserting account", `
		INSERT INTO accounts (id, number, name, type, detail, parent_id, balance,
			opening_balance, opening_date, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Number, a.Name, string(a.Type), string(a.Detail), nullable(a.ParentID),
		a.Balance, a.OpeningBalance, formatDate(a.OpeningDate), boolInt(a.Active),
		formatTimestamp(a.CreatedAt))
	return err
}

// Account returns one account by id.
func (t *Tx) Account(ctx context.Context, id string) (model.Account, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperr.NotFound("account", id)
	}
	return a, err
}

// AccountByNumber returns the account carrying the given number.
func (t *Tx) AccountByNumber(ctx context.Context, number string) (model.Account, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = ? AND number <> ''`, number)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperr.NotFound("account number", number)
	}
	return a, err
}

// Accounts lists accounts ordered by number then name.
func (t *Tx) Accounts(ctx context.Context, includeInactive bool) ([]model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeInactive {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY number, name, id`
	rows, err := t.query(ctx, "listing accounts", q)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing accounts", scanAccount)
}

// SetAccountActive flips the active flag.
func (t *Tx) SetAccountActive(ctx context.Context, id string, active bool) error {
	res, err := t.exec(ctx, "updating account", `UPDATE accounts SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return err
	}
	return requireRow(res, "account", id)
}

// SetAccountBalance stores the running balance of an account.
func (t *Tx) SetAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	res, err := t.exec(ctx, "updating balance", `UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return err
	}
	return requireRow(res, "account", id)
}

func scanAccount(s scanner) (model.Account, error) {
	var (
		a                   model.Account
		typ, detail         string
		openDate, createdAt string
		active              int
	)
	err := s.Scan(&a.ID, &a.Number, &a.Name, &typ, &detail, &a.ParentID, &a.Balance,
		&a.OpeningBalance, &openDate, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, err
	}
	if err != nil {
		return model.Account{}, apperr.Storage("scanning account", err)
	}
	a.Type = model.AccountType(typ)
	a.Detail = model.DetailType(detail)
	a.Active = active == 1
	if a.OpeningDate, err = parseDate(openDate); err != nil {
		return model.Account{}, err
	}
	if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("checking affected rows", err)
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
