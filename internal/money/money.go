// Package money holds the decimal helpers every currency amount in the
// system goes through. All money is fixed-point with two fractional
// digits; binary floats are never used for currency.
package money

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits stored for currency values.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Trunc cuts d down to the stored currency precision. Truncation, not
// rounding: a discount of 12.999 is worth 12.99, never 13.00.
func Trunc(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(Scale)
}

// ClampNonNegative floors d at zero.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Percent returns pct percent of base, truncated to currency precision.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Trunc(base.Mul(pct).Div(hundred))
}
