package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilSafeWithoutRegisterer(t *testing.T) {
	t.Parallel()

	m := NewCheckoutMetrics(nil)
	m.ObservePlaced("ideal", 4995)
	m.IncFailed("DEPENDENCY_ERROR")

	var nilMetrics *CheckoutMetrics
	nilMetrics.ObservePlaced("paypal", 100)
	nilMetrics.IncFailed("INTERNAL_ERROR")
}

func TestRegistersOnProvidedRegisterer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.ObservePlaced("credit_card", 12345)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}
