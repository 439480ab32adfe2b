// Package money converts between the major-unit amounts the API accepts and
// stores for display, and the integer minor units the payment gateway uses.
package money

import (
	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/shopspring/decimal"
)

// minorExp is the number of minor-unit digits for supported currencies.
const minorExp = 2

// ToMinor converts a positive major-unit amount to minor units.
// Amounts with more precision than the currency allows are rejected.
func ToMinor(amount float64) (int64, error) {
	d := decimal.NewFromFloat(amount)
	if !d.IsPositive() {
		return 0, apperr.Validation("amount must be greater than 0")
	}
	if !d.Equal(d.Round(minorExp)) {
		return 0, apperr.Validation("amount must have at most two decimal places")
	}
	return d.Shift(minorExp).IntPart(), nil
}

// FromMinor converts minor units back to a major-unit amount.
func FromMinor(minor int64) float64 {
	return decimal.New(minor, -minorExp).InexactFloat64()
}

// Format renders minor units as a fixed two-decimal string, e.g. "10.00".
func Format(minor int64) string {
	return decimal.New(minor, -minorExp).StringFixed(minorExp)
}
