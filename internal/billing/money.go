package billing

import "github.com/shopspring/decimal"

// Precision is the number of decimal places every monetary amount is rounded to.
const Precision = 2

// RateScale is the number of decimal places a tax rate may carry.
const RateScale = 3

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to two decimal places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Precision)
}

// Add returns round(a + b).
func Add(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Add(b))
}

// Multiply returns round(amount * factor).
func Multiply(amount, factor decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(factor))
}

// Sum folds amounts with Add. An empty list sums to zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = Add(total, a)
	}
	return total
}

// Format renders an amount with exactly two decimals, e.g. "220.00".
func Format(amount decimal.Decimal) string {
	return Round(amount).StringFixed(Precision)
}

// FitsScale reports whether d has no significant digits beyond places decimals.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}
