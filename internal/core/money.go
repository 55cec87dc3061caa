// Package core provides the transaction domain model and money handling.
//
// Amounts are decimal values with two-place precision. The storage layer
// keeps them as integer cents; these helpers convert at that boundary.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary cell into a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects negative values. Precision beyond two places is rounded half-up,
// matching the store's numeric column.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// Cents converts an amount to integer cents for storage, rounding half-up
// on the third decimal place.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts stored integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
