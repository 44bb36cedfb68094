package enums

// Currency is the ISO 4217 code used for display formatting. The shop
// operates in a single currency.
type Currency string

const CurrencyEUR Currency = "EUR"

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
