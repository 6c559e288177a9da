// Package money converts between stored minor units and decimal amounts.
// Amounts are persisted as int64 cents; requests and responses carry decimals.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromFloat converts a decimal amount (as received in JSON) to cents,
// rounding half away from zero.
func FromFloat(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// FromString parses a decimal amount such as "15000" or "12.50" into cents.
func FromString(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// ToFloat converts cents to a decimal amount for JSON responses.
func ToFloat(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// Format renders cents with two decimals, e.g. 150000 -> "1500.00".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
