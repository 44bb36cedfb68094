package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCentsDecimalRoundTrip(t *testing.T) {
	t.Parallel()

	for _, amount := range []Cents{0, 1, 495, 995, 5000, 123456789} {
		if got := CentsFromDecimal(amount.Decimal()); got != amount {
			t.Fatalf("round trip mismatch: %d -> %d", amount, got)
		}
	}
}

func TestCentsString(t *testing.T) {
	t.Parallel()

	if got := Cents(495).String(); got != "4.95 EUR" {
		t.Fatalf("unexpected rendering %q", got)
	}
	if got := Cents(5000).String(); got != "50.00 EUR" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestCentsFromDecimalTruncates(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString("4.959")
	if got := CentsFromDecimal(d); got != 495 {
		t.Fatalf("expected sub-cent digits truncated, got %d", got)
	}
}
