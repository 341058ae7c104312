package engine

import (
	"context"
	"time"

	"github.com/cleared-dev/tally/internal/reports"
)

// GetTrialBalance returns the trial balance as of asOf; zero means today.
func (e *Engine) GetTrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error) {
	return e.reports.TrialBalance(ctx, asOf)
}

// GetBalanceSheet returns the balance sheet as of asOf.
func (e *Engine) GetBalanceSheet(ctx context.Context, asOf time.Time) (reports.BalanceSheet, error) {
	return e.reports.BalanceSheet(ctx, asOf)
}

// GetIncomeStatement returns income and expenses over [from, to].
func (e *Engine) GetIncomeStatement(ctx context.Context, from, to time.Time) (reports.IncomeStatement, error) {
	return e.reports.IncomeStatement(ctx, from, to)
}

// GetAgingReport returns receivable or payable aging as of asOf.
func (e *Engine) GetAgingReport(ctx context.Context, asOf time.Time, kind reports.AgingKind) (reports.Aging, error) {
	return e.reports.Aging(ctx, asOf, kind)
}
