package types

import (
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/leafroom-backend/pkg/enums"
)

// Cents is a money amount in euro minor units. All arithmetic inside the
// service happens on this type; decimals exist only at the display edge.
type Cents int64

// Decimal converts the amount to a major-unit decimal (e.g. 495 -> 4.95).
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String renders the amount with two fraction digits and the currency code.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2) + " " + enums.CurrencyEUR.String()
}

// CentsFromDecimal converts a major-unit decimal into minor units,
// truncating beyond two fraction digits.
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).IntPart())
}
