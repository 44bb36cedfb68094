package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/leafroom-backend/pkg/config"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// Breakdown is the derived cost of a cart for a chosen shipping method.
// Total is always subtotal plus shipping; no component is stored anywhere.
type Breakdown struct {
	SubtotalCents types.Cents          `json:"subtotal_cents"`
	ShippingCents types.Cents          `json:"shipping_cents"`
	TotalCents    types.Cents          `json:"total_cents"`
	Method        enums.ShippingMethod `json:"shipping_method"`
	Currency      enums.Currency       `json:"currency"`
}

// Calculator derives shipping cost, order totals and loyalty points from
// configured rates. It holds no mutable state.
type Calculator struct {
	shipping config.ShippingConfig
	loyalty  config.LoyaltyConfig
}

// NewCalculator builds a calculator from the configured rates.
func NewCalculator(shipping config.ShippingConfig, loyalty config.LoyaltyConfig) *Calculator {
	return &Calculator{shipping: shipping, loyalty: loyalty}
}

// Quote prices a subtotal under the given shipping method. Standard shipping
// is free once the subtotal reaches the free threshold; express is never
// discounted.
func (c *Calculator) Quote(subtotal types.Cents, method enums.ShippingMethod) (Breakdown, error) {
	if !method.IsValid() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
			WithDetails(map[string]any{"shipping_method": string(method)})
	}

	shipping := c.ShippingCents(subtotal, method)
	return Breakdown{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TotalCents:    subtotal + shipping,
		Method:        method,
		Currency:      enums.CurrencyEUR,
	}, nil
}

// ShippingCents returns the shipping cost for a subtotal and method.
func (c *Calculator) ShippingCents(subtotal types.Cents, method enums.ShippingMethod) types.Cents {
	switch method {
	case enums.ShippingMethodExpress:
		return types.Cents(c.shipping.ExpressRateCents)
	default:
		if subtotal >= types.Cents(c.shipping.FreeThresholdCents) {
			return 0
		}
		return types.Cents(c.shipping.StandardRateCents)
	}
}

// LoyaltyPoints converts an order total into loyalty points, one point per
// configured whole euros spent, fractions dropped.
func (c *Calculator) LoyaltyPoints(total types.Cents) int {
	if c.loyalty.EurosPerPoint <= 0 || total <= 0 {
		return 0
	}
	points := total.Decimal().
		Div(decimal.NewFromInt(int64(c.loyalty.EurosPerPoint))).
		Floor()
	return int(points.IntPart())
}
