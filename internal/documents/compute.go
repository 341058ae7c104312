// Package documents turns business documents into balanced journal entries.
package documents

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Totals is the computed money side of a document.
type Totals struct {
	Items    []model.LineItem
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute fills in each line's amount (quantity × rate, cents) and derives
// subtotal, tax and total. An unset quantity counts as one. Tax is charged on
// flagged lines, or on every line when no line carries a flag.
func Compute(items []model.LineItem, taxRate decimal.Decimal) Totals {
	out := Totals{Items: make([]model.LineItem, len(items))}

	flagged := false
	for _, it := range items {
		if it.Taxable != nil {
			flagged = true
			break
		}
	}

	taxable := decimal.Zero
	for i, it := range items {
		qty := decimal.NewFromInt(1)
		if it.Quantity.Valid {
			qty = it.Quantity.Decimal
		}
		it.Quantity = decimal.NewNullDecimal(qty)
		it.Amount = model.Cents(qty.Mul(it.Rate))
		out.Items[i] = it

		out.Subtotal = out.Subtotal.Add(it.Amount)
		if !flagged || (it.Taxable != nil && *it.Taxable) {
			taxable = taxable.Add(it.Amount)
		}
	}

	if !taxRate.IsZero() {
		out.Tax = model.Cents(taxable.Mul(taxRate).Div(hundred))
	}
	out.Total = out.Subtotal.Add(out.Tax)
	return out
}
