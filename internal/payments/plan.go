// Package payments receives customer payments, pays bills and allocates
// payments against open invoices and bills.
package payments

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

// PlanAuto applies remaining to open items oldest first (date, then id),
// taking min(remaining, balance) from each until either runs out. It does
// not modify open.
func PlanAuto(remaining decimal.Decimal, open []model.OpenItem) []model.Application {
	sorted := slices.Clone(open)
	slices.SortStableFunc(sorted, func(a, b model.OpenItem) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.TransactionID, b.TransactionID)
	})

	var apps []model.Application
	for _, item := range sorted {
		if !remaining.IsPositive() {
			break
		}
		if !model.IsOpen(item.Balance) {
			continue
		}
		amt := decimal.Min(remaining, item.Balance)
		apps = append(apps, model.Application{TargetID: item.TransactionID, Amount: amt})
		remaining = remaining.Sub(amt)
	}
	return apps
}

// CheckManual validates explicit applications against the payment's
// unapplied remainder and each target's open balance. Repeated targets are
// summed.
func CheckManual(remaining decimal.Decimal, apps []model.Application, open map[string]model.OpenItem) error {
	perTarget := make(map[string]decimal.Decimal, len(apps))
	total := decimal.Zero
	for _, app := range apps {
		if !app.Amount.IsPositive() || !model.HasCentPrecision(app.Amount) {
			return apperr.New(apperr.KindInvalidAmount, "application amount %s must be positive with at most 2 decimal places", app.Amount)
		}
		perTarget[app.TargetID] = perTarget[app.TargetID].Add(app.Amount)
		total = total.Add(app.Amount)
	}

	for _, app := range apps {
		item, ok := open[app.TargetID]
		if !ok {
			return apperr.New(apperr.KindOverApplication, "document %s has no open balance", app.TargetID)
		}
		if requested := perTarget[app.TargetID]; requested.GreaterThan(item.Balance) {
			e := apperr.New(apperr.KindOverApplication, "%s applied to %s exceeds its open balance %s",
				requested.StringFixed(2), item.Number, item.Balance.StringFixed(2)).WithAmounts(item.Balance, requested)
			e.ID = item.TransactionID
			return e
		}
	}

	if total.GreaterThan(remaining) {
		return apperr.New(apperr.KindOverApplication, "applications total %s exceeds unapplied payment %s",
			total.StringFixed(2), remaining.StringFixed(2)).WithAmounts(remaining, total)
	}
	return nil
}
