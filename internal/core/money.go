// Package core holds the domain model and the cash-flow projection logic.
//
// This file contains amount parsing. Amounts are carried as positive
// decimals; the sign of a transaction's monetary effect is inferred from
// its Kind and never stored.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied amount string to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Explicit signs are rejected: stored amounts are always positive.
// Returns ErrInvalidAmount for malformed, zero, negative, or
// sub-cent-precision input.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	// Sub-cent precision would break exact re-summation of stored totals.
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
