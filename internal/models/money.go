package models

import "math"

// Money is an amount in minor currency units (cents), which keeps line item
// arithmetic exact.
type Money int64

// NewMoneyFromFloat converts a major-unit amount (e.g. 12.50) to Money,
// rounding to the nearest cent.
func NewMoneyFromFloat(f float64) Money {
	return Money(math.Round(f * 100.0))
}

// Float returns the amount in major units for JSON responses and display.
func (m Money) Float() float64 {
	return float64(m) / 100.0
}
