package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const transactionColumns = `id, number, type, status, date, due_date, COALESCE(customer_id, ''),
	COALESCE(vendor_id, ''), tax_rate, subtotal, tax, total, memo,
	COALESCE(deposit_account_id, ''), COALESCE(deposit_id, ''), COALESCE(reverses_id, ''), created_at`

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	Types   []model.TransactionType
	PartyID string
	Status  model.TransactionStatus
	To      time.Time // inclusive
}

// InsertTransaction adds a transaction header and its line items.
func (t *Tx) InsertTransaction(ctx context.Context, tr model.Transaction) error {
	_, err := t.exec(ctx, "inserting transaction", `
		INSERT INTO transactions (id, number, type, status, date, due_date, customer_id, vendor_id,
			tax_rate, subtotal, tax, total, memo, deposit_account_id, deposit_id, reverses_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.Number, string(tr.Type), string(tr.Status), formatDate(tr.Date), formatDate(tr.DueDate),
		nullable(tr.CustomerID), nullable(tr.VendorID), tr.TaxRate, tr.Subtotal, tr.Tax, tr.Total,
		tr.Memo, nullable(tr.DepositAccountID), nullable(tr.DepositID), nullable(tr.ReversesID),
		formatTimestamp(tr.CreatedAt))
	if err != nil {
		return err
	}

	for i, item := range tr.Items {
		var taxable any
		if item.Taxable != nil {
			taxable = boolInt(*item.Taxable)
		}
		if _, err := t.exec(ctx, "inserting line item", `
			INSERT INTO line_items (transaction_id, seq, description, quantity, rate, amount, account_id, taxable)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tr.ID, i, item.Description, item.Quantity, item.Rate, item.Amount, item.AccountID, taxable); err != nil {
			return err
		}
	}
	return nil
}

// Transaction returns a transaction with its line items.
func (t *Tx) Transaction(ctx context.Context, id string) (model.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tr, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperr.NotFound("transaction", id)
	}
	if err != nil {
		return model.Transaction{}, err
	}
	if tr.Items, err = t.lineItems(ctx, id); err != nil {
		return model.Transaction{}, err
	}
	return tr, nil
}

// Transactions lists transaction headers (without items) ordered by date then
// id.
func (t *Tx) Transactions(ctx context.Context, f TransactionFilter) ([]model.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Types) > 0 {
		marks := make([]string, len(f.Types))
		for i, typ := range f.Types {
			marks[i] = "?"
			args = append(args, string(typ))
		}
		where = append(where, "type IN ("+strings.Join(marks, ", ")+")")
	}
	if f.PartyID != "" {
		where = append(where, "(customer_id = ? OR vendor_id = ?)")
		args = append(args, f.PartyID, f.PartyID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, formatDate(f.To))
	}

	q := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date, id"

	rows, err := t.query(ctx, "listing transactions", q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing transactions", scanTransaction)
}

// NumbersWithPrefix returns every document number starting with prefix.
func (t *Tx) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := t.query(ctx, "listing numbers",
		`SELECT number FROM transactions WHERE substr(number, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing numbers", func(s scanner) (string, error) {
		var n string
		if err := s.Scan(&n); err != nil {
			return "", apperr.Storage("scanning number", err)
		}
		return n, nil
	})
}

// MarkDeposited sets a payment's status to Deposited and links the deposit.
func (t *Tx) MarkDeposited(ctx context.Context, paymentID, depositID string) error {
	res, err := t.exec(ctx, "marking deposited",
		`UPDATE transactions SET status = ?, deposit_id = ? WHERE id = ?`,
		string(model.StatusDeposited), depositID, paymentID)
	if err != nil {
		return err
	}
	return requireRow(res, "transaction", paymentID)
}

// IsReversed reports whether a reversing transaction already exists for id.
func (t *Tx) IsReversed(ctx context.Context, id string) (bool, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE reverses_id = ?`, id).Scan(&n); err != nil {
		return false, apperr.Storage("checking reversal", err)
	}
	return n > 0, nil
}

// ReversedIDs returns the set of transaction ids that have been reversed.
func (t *Tx) ReversedIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := t.query(ctx, "listing reversals", `SELECT reverses_id FROM transactions WHERE reverses_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	ids, err := collect(rows, "listing reversals", func(s scanner) (string, error) {
		var id string
		if err := s.Scan(&id); err != nil {
			return "", apperr.Storage("scanning reversal", err)
		}
		return id, nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (t *Tx) lineItems(ctx context.Context, txnID string) ([]model.LineItem, error) {
	rows, err := t.query(ctx, "listing line items", `
		SELECT description, quantity, rate, amount, account_id, taxable
		FROM line_items WHERE transaction_id = ? ORDER BY seq`, txnID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing line items", func(s scanner) (model.LineItem, error) {
		var (
			item    model.LineItem
			taxable sql.NullInt64
		)
		if err := s.Scan(&item.Description, &item.Quantity, &item.Rate, &item.Amount, &item.AccountID, &taxable); err != nil {
			return model.LineItem{}, apperr.Storage("scanning line item", err)
		}
		if taxable.Valid {
			v := taxable.Int64 == 1
			item.Taxable = &v
		}
		return item, nil
	})
}

func scanTransaction(s scanner) (model.Transaction, error) {
	var (
		tr                         model.Transaction
		typ, status                string
		date, dueDate, createdAt   string
		taxRate, subtotal, tax, tt decimal.Decimal
	)
	err := s.Scan(&tr.ID, &tr.Number, &typ, &status, &date, &dueDate, &tr.CustomerID, &tr.VendorID,
		&taxRate, &subtotal, &tax, &tt, &tr.Memo, &tr.DepositAccountID, &tr.DepositID, &tr.ReversesID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, err
	}
	if err != nil {
		return model.Transaction{}, apperr.Storage("scanning transaction", err)
	}
	tr.Type = model.TransactionType(typ)
	tr.Status = model.TransactionStatus(status)
	tr.TaxRate, tr.Subtotal, tr.Tax, tr.Total = taxRate, subtotal, tax, tt
	if tr.Date, err = parseDate(date); err != nil {
		return model.Transaction{}, err
	}
	if tr.DueDate, err = parseDate(dueDate); err != nil {
		return model.Transaction{}, err
	}
	if tr.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return model.Transaction{}, err
	}
	return tr, nil
}
