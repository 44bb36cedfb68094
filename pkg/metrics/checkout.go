package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// CheckoutMetrics records checkout submission outcomes.
type CheckoutMetrics struct {
	placed     *prometheus.CounterVec
	failed     *prometheus.CounterVec
	orderValue prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Orders successfully persisted, by payment method.",
	}, []string{"payment_method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_failed_total",
		Help: "Order submissions that failed, by error code.",
	}, []string{"code"})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_order_value_euros",
		Help:    "Grand total of placed orders in euros.",
		Buckets: []float64{10, 25, 50, 75, 100, 150, 250, 500},
	})
	reg.MustRegister(placed, failed, orderValue)
	return &CheckoutMetrics{
		placed:     placed,
		failed:     failed,
		orderValue: orderValue,
	}
}

// ObservePlaced records a successful order.
func (c *CheckoutMetrics) ObservePlaced(paymentMethod string, total types.Cents) {
	if c == nil || c.placed == nil {
		return
	}
	c.placed.WithLabelValues(paymentMethod).Inc()
	c.orderValue.Observe(total.Decimal().InexactFloat64())
}

// IncFailed records a failed order submission.
func (c *CheckoutMetrics) IncFailed(code string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(code).Inc()
}
