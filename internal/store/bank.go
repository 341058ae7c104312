package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const bankColumns = `id, account_id, date, description, amount, reference, type, state,
	COALESCE(session_id, ''), COALESCE(matched_transaction_id, '')`

// InsertBankTransaction adds an imported bank row. It returns false without
// error when a row with the same account and reference already exists.
func (t *Tx) InsertBankTransaction(ctx context.Context, b model.BankTransaction) (bool, error) {
	res, err := t.exec(ctx, "inserting bank transaction", `
		INSERT OR IGNORE INTO bank_transactions (id, account_id, date, description, amount, reference,
			type, state, session_id, matched_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AccountID, formatDate(b.Date), b.Description, b.Amount, b.Reference, b.Type,
		string(b.State), nullable(b.SessionID), nullable(b.MatchedTransactionID))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("checking affected rows", err)
	}
	return n == 1, nil
}

// BankTransaction returns one imported bank row.
func (t *Tx) BankTransaction(ctx context.Context, id string) (model.BankTransaction, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+bankColumns+` FROM bank_transactions WHERE id = ?`, id)
	b, err := scanBank(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BankTransaction{}, apperr.NotFound("bank transaction", id)
	}
	return b, err
}

// BankTransactions lists an account's bank rows ordered by date.
func (t *Tx) BankTransactions(ctx context.Context, accountID string) ([]model.BankTransaction, error) {
	rows, err := t.query(ctx, "listing bank transactions",
		`SELECT `+bankColumns+` FROM bank_transactions WHERE account_id = ? ORDER BY date, reference`, accountID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing bank transactions", scanBank)
}

// SessionMembers lists the bank rows linked to a session.
func (t *Tx) SessionMembers(ctx context.Context, sessionID string) ([]model.BankTransaction, error) {
	rows, err := t.query(ctx, "listing session members",
		`SELECT `+bankColumns+` FROM bank_transactions WHERE session_id = ? ORDER BY date, reference`, sessionID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing session members", scanBank)
}

// UpdateBankTransaction stores the state and links of a bank row.
func (t *Tx) UpdateBankTransaction(ctx context.Context, b model.BankTransaction) error {
	res, err := t.exec(ctx, "updating bank transaction", `
		UPDATE bank_transactions SET state = ?, session_id = ?, matched_transaction_id = ? WHERE id = ?`,
		string(b.State), nullable(b.SessionID), nullable(b.MatchedTransactionID), b.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "bank transaction", b.ID)
}

// MarkSessionReconciled moves every member of a session to Reconciled.
func (t *Tx) MarkSessionReconciled(ctx context.Context, sessionID string) error {
	_, err := t.exec(ctx, "reconciling session members",
		`UPDATE bank_transactions SET state = ? WHERE session_id = ?`, string(model.BankReconciled), sessionID)
	return err
}

func scanBank(s scanner) (model.BankTransaction, error) {
	var (
		b           model.BankTransaction
		date, state string
	)
	err := s.Scan(&b.ID, &b.AccountID, &date, &b.Description, &b.Amount, &b.Reference, &b.Type, &state,
		&b.SessionID, &b.MatchedTransactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BankTransaction{}, err
	}
	if err != nil {
		return model.BankTransaction{}, apperr.Storage("scanning bank transaction", err)
	}
	b.State = model.BankState(state)
	if b.Date, err = parseDate(date); err != nil {
		return model.BankTransaction{}, err
	}
	return b, nil
}
