// Package money provides fixed-semantics helpers for currency and quantity
// arithmetic. All amounts are integers in the smallest currency unit (cents);
// locale-aware display formatting is the caller's concern.
package money

import "math"

// Cents is a currency amount in the smallest currency unit.
type Cents int64

// ApplyRate multiplies amount by rate and rounds half away from zero.
// Used for tax and fee application, e.g. ApplyRate(7500, 0.18) == 1350.
func ApplyRate(amount Cents, rate float64) Cents {
	return Cents(math.Round(float64(amount) * rate))
}

// ClampNonNegative floors n at zero.
func ClampNonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// Line returns the extended amount for a line item: unit price times quantity.
func Line(unitPrice Cents, quantity int) Cents {
	return unitPrice * Cents(quantity)
}
