package store

import (
	"context"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const lineColumns = `id, transaction_id, account_id, description, debit, credit, date`

// LineFilter narrows JournalLines. Zero fields match everything; From and To
// are inclusive.
type LineFilter struct {
	AccountID     string
	TransactionID string
	From          time.Time
	To            time.Time
}

// InsertLines appends journal lines for one transaction and fills in their
// ids.
func (t *Tx) InsertLines(ctx context.Context, lines []model.JournalLine) error {
	for i := range lines {
		l := &lines[i]
		res, err := t.exec(ctx, "inserting journal line", `
			INSERT INTO journal_lines (transaction_id, account_id, description, debit, credit, date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.TransactionID, l.AccountID, l.Description, l.Debit, l.Credit, formatDate(l.Date))
		if err != nil {
			return err
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return apperr.Storage("reading line id", err)
		}
	}
	return nil
}

// JournalLines lists lines ordered by date then insertion order.
func (t *Tx) JournalLines(ctx context.Context, f LineFilter) ([]model.JournalLine, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.TransactionID != "" {
		where = append(where, "transaction_id = ?")
		args = append(args, f.TransactionID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, formatDate(f.To))
	}

	q := `SELECT ` + lineColumns + ` FROM journal_lines`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date, id"

	rows, err := t.query(ctx, "listing journal lines", q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing journal lines", scanLine)
}

func scanLine(s scanner) (model.JournalLine, error) {
	var (
		l    model.JournalLine
		date string
	)
	if err := s.Scan(&l.ID, &l.TransactionID, &l.AccountID, &l.Description, &l.Debit, &l.Credit, &date); err != nil {
		return model.JournalLine{}, apperr.Storage("scanning journal line", err)
	}
	var err error
	if l.Date, err = parseDate(date); err != nil {
		return model.JournalLine{}, err
	}
	return l, nil
}
