// Package valueobject holds small immutable helpers shared by the domain packages.
package valueobject

import (
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code
type Currency string

// DefaultCurrency is used when a tenant has not configured one
const DefaultCurrency Currency = "USD"

// AmountPlaces is the number of decimal places kept on every monetary amount
const AmountPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundAmount rounds to currency precision, half away from zero
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// Percentage returns percent% of base rounded to currency precision
func Percentage(base, percent decimal.Decimal) decimal.Decimal {
	return RoundAmount(base.Mul(percent).Div(hundred))
}

// FloorToUnit rounds amount down to a multiple of unit.
// A zero or negative unit leaves the amount unchanged.
func FloorToUnit(amount, unit decimal.Decimal) decimal.Decimal {
	if !unit.IsPositive() {
		return amount
	}
	return amount.Div(unit).Floor().Mul(unit)
}

// NonNegative clamps d at zero
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MinAmount returns the smaller of a and b
func MinAmount(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Sum adds up amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// HasValidPrecision reports whether d has no more decimals than a currency allows
func HasValidPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountPlaces))
}
