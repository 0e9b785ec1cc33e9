// Package money converts between integer cents and their decimal presentation.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units.
type Cents int64

// FromDecimalString parses a presentation amount such as "12.34" into cents,
// rounding half away from zero at the second decimal place.
func FromDecimalString(value string) (Cents, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return Cents(d.Shift(2).Round(0).IntPart()), nil
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Shift(-2)
}

// String formats the amount with exactly two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Int64 exposes the raw cent value.
func (c Cents) Int64() int64 {
	return int64(c)
}

// Amount is the wire representation of a monetary value.
type Amount struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

// NewAmount pairs the raw cents with their formatted decimal.
func NewAmount(cents int64) Amount {
	return Amount{Cents: cents, Display: Cents(cents).String()}
}
