package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// FromString parses decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Round2 rounds half away from zero to 2 places, symmetric for negative values
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Mul multiplies two decimals, rounds to 2 places
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(2)
}

// LineAmount computes quantity * price - discount without rounding
func LineAmount(quantity, price, discount decimal.Decimal) decimal.Decimal {
	return quantity.Mul(price).Sub(discount)
}

// CalculateVAT computes VAT amount: base * (rate/100), rounded once to 2 places
func CalculateVAT(base, ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return Zero
	}
	return base.Mul(ratePercent).Div(hundred).Round(2)
}

// MultiplierFactor computes |part| / |whole| * 100 rounded to 2 places.
// Returns zero when whole is zero.
func MultiplierFactor(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return Zero
	}
	return part.Abs().Div(whole.Abs()).Mul(hundred).Round(2)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

// Format2 renders d with exactly 2 fraction digits, as UBL amounts require
func Format2(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// FormatPrice renders at least 2 fraction digits, keeping extra precision when present
func FormatPrice(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

// FormatQty renders quantities without trailing zeros beyond what is significant
func FormatQty(d decimal.Decimal) string {
	if d.Equal(d.Round(0)) {
		return d.StringFixed(0)
	}
	return d.String()
}
