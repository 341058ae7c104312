package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

// InsertAllocation records part of a payment applied to a document.
func (t *Tx) InsertAllocation(ctx context.Context, a model.Allocation) error {
	_, err := t.exec(ctx, "inserting allocation", `
		INSERT INTO payment_allocations (payment_id, target_id, amount, date) VALUES (?, ?, ?, ?)`,
		a.PaymentID, a.TargetID, a.Amount, formatDate(a.Date))
	return err
}

// AllocationsForPayment lists allocations made from one payment.
func (t *Tx) AllocationsForPayment(ctx context.Context, paymentID string) ([]model.Allocation, error) {
	return t.allocations(ctx, `WHERE payment_id = ?`, paymentID)
}

// AllocationsForTarget lists allocations applied to one document.
func (t *Tx) AllocationsForTarget(ctx context.Context, targetID string) ([]model.Allocation, error) {
	return t.allocations(ctx, `WHERE target_id = ?`, targetID)
}

// AppliedByTarget sums allocations per target document. A non-zero asOf
// excludes allocations dated after it.
func (t *Tx) AppliedByTarget(ctx context.Context, asOf time.Time) (map[string]decimal.Decimal, error) {
	var (
		allocs []model.Allocation
		err    error
	)
	if asOf.IsZero() {
		allocs, err = t.allocations(ctx, ``)
	} else {
		allocs, err = t.allocations(ctx, `WHERE date <= ?`, formatDate(asOf))
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, a := range allocs {
		out[a.TargetID] = out[a.TargetID].Add(a.Amount)
	}
	return out, nil
}

// AppliedByPayment sums allocations per payment.
func (t *Tx) AppliedByPayment(ctx context.Context) (map[string]decimal.Decimal, error) {
	allocs, err := t.allocations(ctx, ``)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, a := range allocs {
		out[a.PaymentID] = out[a.PaymentID].Add(a.Amount)
	}
	return out, nil
}

func (t *Tx) allocations(ctx context.Context, where string, args ...any) ([]model.Allocation, error) {
	rows, err := t.query(ctx, "listing allocations",
		`SELECT payment_id, target_id, amount, date FROM payment_allocations `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing allocations", func(s scanner) (model.Allocation, error) {
		var (
			a    model.Allocation
			date string
		)
		if err := s.Scan(&a.PaymentID, &a.TargetID, &a.Amount, &date); err != nil {
			return model.Allocation{}, apperr.Storage("scanning allocation", err)
		}
		var err error
		if a.Date, err = parseDate(date); err != nil {
			return model.Allocation{}, err
		}
		return a, nil
	})
}
