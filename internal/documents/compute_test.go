package documents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/tally/internal/model"
)

func qty(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func flag(b bool) *bool { return &b }

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		items    []model.LineItem
		rate     string
		subtotal string
		tax      string
		total    string
	}{
		{
			name:     "single line with tax",
			items:    []model.LineItem{{Quantity: qty("1"), Rate: dec("100")}},
			rate:     "10",
			subtotal: "100", tax: "10", total: "110",
		},
		{
			name:     "unset quantity counts as one",
			items:    []model.LineItem{{Rate: dec("45.50")}},
			rate:     "0",
			subtotal: "45.50", tax: "0", total: "45.50",
		},
		{
			name:     "explicit zero quantity bills nothing",
			items:    []model.LineItem{{Quantity: qty("0"), Rate: dec("50")}, {Quantity: qty("2"), Rate: dec("10")}},
			rate:     "0",
			subtotal: "20", tax: "0", total: "20",
		},
		{
			name:     "amount rounds to cents",
			items:    []model.LineItem{{Quantity: qty("3"), Rate: dec("0.333")}},
			rate:     "0",
			subtotal: "1", tax: "0", total: "1",
		},
		{
			name: "tax only on flagged lines",
			items: []model.LineItem{
				{Quantity: qty("2"), Rate: dec("50"), Taxable: flag(true)},
				{Quantity: qty("1"), Rate: dec("200"), Taxable: flag(false)},
				{Quantity: qty("1"), Rate: dec("30")},
			},
			rate:     "8.25",
			subtotal: "330", tax: "8.25", total: "338.25",
		},
		{
			name:     "tax rounds half up",
			items:    []model.LineItem{{Quantity: qty("1"), Rate: dec("10.10")}},
			rate:     "7.5",
			subtotal: "10.10", tax: "0.76", total: "10.86",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.items, dec(tt.rate))
			assert.True(t, got.Subtotal.Equal(dec(tt.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.Tax.Equal(dec(tt.tax)), "tax %s", got.Tax)
			assert.True(t, got.Total.Equal(dec(tt.total)), "total %s", got.Total)
		})
	}
}

func TestComputeIsPure(t *testing.T) {
	items := []model.LineItem{{Rate: dec("12")}}
	first := Compute(items, dec("5"))
	second := Compute(items, dec("5"))
	assert.Equal(t, first, second)
	assert.False(t, items[0].Quantity.Valid, "input items are not modified")
	assert.True(t, first.Items[0].Quantity.Decimal.Equal(dec("1")))
}
