package model

import "github.com/shopspring/decimal"

// Tolerance is the largest difference treated as equal when comparing sums.
var Tolerance = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Cents rounds d to two decimal places.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// HasCentPrecision reports whether d has no more than two decimal places.
func HasCentPrecision(d decimal.Decimal) bool {
	scaled := d.Mul(hundred)
	return scaled.Equal(scaled.Truncate(0))
}

// Within reports whether |a − b| ≤ Tolerance.
func Within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// IsOpen reports whether an open-item balance is still owed.
func IsOpen(balance decimal.Decimal) bool {
	return balance.GreaterThan(Tolerance)
}
