package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const sessionColumns = `id, account_id, statement_date, ending_balance, opening_balance,
	cleared_balance, status, created_at, completed_at`

// InsertSession adds a reconciliation session.
func (t *Tx) InsertSession(ctx context.Context, s model.ReconciliationSession) error {
	_, err := t.exec(ctx, "inserting session", `
		INSERT INTO reconciliation_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, formatDate(s.StatementDate), s.EndingBalance, s.OpeningBalance,
		s.ClearedBalance, string(s.Status), formatTimestamp(s.CreatedAt), formatTimestamp(s.CompletedAt))
	return err
}

// Session returns one session by id.
func (t *Tx) Session(ctx context.Context, id string) (model.ReconciliationSession, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM reconciliation_sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReconciliationSession{}, apperr.NotFound("reconciliation session", id)
	}
	return s, err
}

// OpenSession returns the in-progress session for an account, if any.
func (t *Tx) OpenSession(ctx context.Context, accountID string) (model.ReconciliationSession, bool, error) {
	return t.sessionWhere(ctx, `WHERE account_id = ? AND status = ?`, accountID, string(model.SessionInProgress))
}

// LastCompletedSession returns the account's most recent completed session.
func (t *Tx) LastCompletedSession(ctx context.Context, accountID string) (model.ReconciliationSession, bool, error) {
	return t.sessionWhere(ctx, `WHERE account_id = ? AND status = ? ORDER BY statement_date DESC, completed_at DESC LIMIT 1`,
		accountID, string(model.SessionCompleted))
}

// Sessions lists an account's sessions, oldest statement first.
func (t *Tx) Sessions(ctx context.Context, accountID string) ([]model.ReconciliationSession, error) {
	rows, err := t.query(ctx, "listing sessions",
		`SELECT `+sessionColumns+` FROM reconciliation_sessions WHERE account_id = ? ORDER BY statement_date, created_at`, accountID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing sessions", scanSession)
}

// CompleteSession stores the cleared balance and marks the session Completed.
func (t *Tx) CompleteSession(ctx context.Context, s model.ReconciliationSession) error {
	res, err := t.exec(ctx, "completing session", `
		UPDATE reconciliation_sessions SET status = ?, cleared_balance = ?, completed_at = ? WHERE id = ?`,
		string(model.SessionCompleted), s.ClearedBalance, formatTimestamp(s.CompletedAt), s.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "reconciliation session", s.ID)
}

func (t *Tx) sessionWhere(ctx context.Context, where string, args ...any) (model.ReconciliationSession, bool, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM reconciliation_sessions `+where, args...)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReconciliationSession{}, false, nil
	}
	if err != nil {
		return model.ReconciliationSession{}, false, err
	}
	return s, true, nil
}

func scanSession(sc scanner) (model.ReconciliationSession, error) {
	var (
		s                                model.ReconciliationSession
		stmt, status, created, completed string
	)
	err := sc.Scan(&s.ID, &s.AccountID, &stmt, &s.EndingBalance, &s.OpeningBalance,
		&s.ClearedBalance, &status, &created, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReconciliationSession{}, err
	}
	if err != nil {
		return model.ReconciliationSession{}, apperr.Storage("scanning session", err)
	}
	s.Status = model.SessionStatus(status)
	if s.StatementDate, err = parseDate(stmt); err != nil {
		return model.ReconciliationSession{}, err
	}
	if s.CreatedAt, err = parseTimestamp(created); err != nil {
		return model.ReconciliationSession{}, err
	}
	if s.CompletedAt, err = parseTimestamp(completed); err != nil {
		return model.ReconciliationSession{}, err
	}
	return s, nil
}
