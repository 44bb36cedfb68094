package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/internal/cart"
	"github.com/verdantlabs/leafroom-backend/internal/orders"
	"github.com/verdantlabs/leafroom-backend/internal/pricing"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/metrics"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// OrderPlacer is the slice of the order service the sequencer needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*models.Order, error)
}

// Draft is the in-progress checkout state. Its ID doubles as the order
// idempotency key, so retrying payment on the same draft can never place a
// second order.
type Draft struct {
	ID             uuid.UUID              `json:"id"`
	Step           enums.CheckoutStep     `json:"step"`
	Contact        *types.ShippingAddress `json:"contact,omitempty"`
	ShippingMethod *enums.ShippingMethod  `json:"shipping_method,omitempty"`
	PaymentMethod  *enums.PaymentMethod   `json:"payment_method,omitempty"`
	OrderID        *uuid.UUID             `json:"order_id,omitempty"`
	OrderNumber    string                 `json:"order_number,omitempty"`
}

// Sequencer walks one cart through the checkout steps in order. Each submit
// validates its own step's input, and no step can run before its
// predecessors have succeeded.
type Sequencer struct {
	draft  Draft
	cart   *cart.Store
	calc   *pricing.Calculator
	placer OrderPlacer
	stats  *metrics.CheckoutMetrics
	logg   *logger.Logger
	owner  orders.Owner
}

// NewSequencer opens a checkout for the given cart. An empty cart cannot
// enter checkout.
func NewSequencer(
	cartStore *cart.Store,
	calc *pricing.Calculator,
	placer OrderPlacer,
	stats *metrics.CheckoutMetrics,
	logg *logger.Logger,
	owner orders.Owner,
) (*Sequencer, error) {
	if cartStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart required")
	}
	if calc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing calculator required")
	}
	if placer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order placer required")
	}
	if len(cartStore.Items()) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cannot start checkout with an empty cart")
	}

	return &Sequencer{
		draft: Draft{
			ID:   uuid.New(),
			Step: enums.CheckoutStepInformation,
		},
		cart:   cartStore,
		calc:   calc,
		placer: placer,
		stats:  stats,
		logg:   logg,
		owner:  owner,
	}, nil
}

// Current returns a copy of the draft.
func (s *Sequencer) Current() Draft {
	return s.draft
}

// Quote prices the cart under the chosen shipping method, falling back to
// standard before the shipping step has been submitted.
func (s *Sequencer) Quote() (pricing.Breakdown, error) {
	method := enums.ShippingMethodStandard
	if s.draft.ShippingMethod != nil {
		method = *s.draft.ShippingMethod
	}
	return s.calc.Quote(s.cart.SubtotalCents(), method)
}

// SubmitInformation records the contact and delivery address and advances
// to the shipping step.
func (s *Sequencer) SubmitInformation(ctx context.Context, addr types.ShippingAddress) error {
	if err := s.guard(enums.CheckoutStepInformation); err != nil {
		return err
	}
	if missing := missingAddressFields(addr); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	s.draft.Contact = &addr
	s.draft.Step = enums.CheckoutStepShipping
	return nil
}

// SubmitShipping records the delivery method and advances to payment.
func (s *Sequencer) SubmitShipping(ctx context.Context, method enums.ShippingMethod) error {
	if err := s.guard(enums.CheckoutStepShipping); err != nil {
		return err
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}

	s.draft.ShippingMethod = &method
	s.draft.Step = enums.CheckoutStepPayment
	return nil
}

// SubmitPayment places the order. On success the cart is emptied and the
// draft lands on confirmation with the order number filled in; on failure
// the draft stays on payment so the shopper can retry.
func (s *Sequencer) SubmitPayment(ctx context.Context, method enums.PaymentMethod) error {
	if err := s.guard(enums.CheckoutStepPayment); err != nil {
		return err
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	breakdown, err := s.calc.Quote(s.cart.SubtotalCents(), *s.draft.ShippingMethod)
	if err != nil {
		return err
	}

	order, err := s.placer.PlaceOrder(ctx, orders.PlaceOrderInput{
		IdempotencyKey:  s.draft.ID.String(),
		UserID:          s.owner.UserID,
		SessionID:       s.owner.SessionID,
		Items:           s.cart.Items(),
		ShippingAddress: *s.draft.Contact,
		ShippingMethod:  *s.draft.ShippingMethod,
		PaymentMethod:   method,
		Breakdown:       breakdown,
	})
	if err != nil {
		s.stats.IncFailed(string(pkgerrors.As(err).Code()))
		if s.logg != nil {
			s.logg.Error(ctx, "order placement failed", err)
		}
		return err
	}

	s.draft.PaymentMethod = &method
	s.draft.OrderID = &order.ID
	s.draft.OrderNumber = order.DisplayNumber()
	s.draft.Step = enums.CheckoutStepConfirmation
	s.cart.Clear(ctx)

	s.stats.ObservePlaced(method.String(), order.TotalCents)
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "checkout completed")
	}
	return nil
}

// Back moves the draft one step toward information. Confirmation is final
// and the first step has nothing before it.
func (s *Sequencer) Back() error {
	prev, ok := s.draft.Step.Prev()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStepOrder, "no previous step").
			WithDetails(map[string]any{"step": s.draft.Step.String()})
	}
	s.draft.Step = prev
	return nil
}

// guard rejects a submit that arrives for the wrong step or after the cart
// has been emptied out from under the draft.
func (s *Sequencer) guard(want enums.CheckoutStep) error {
	if s.draft.Step != want {
		return pkgerrors.New(pkgerrors.CodeStepOrder, "submission does not match the current step").
			WithDetails(map[string]any{
				"current_step":   s.draft.Step.String(),
				"submitted_step": want.String(),
			})
	}
	if len(s.cart.Items()) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart emptied during checkout")
	}
	return nil
}

func missingAddressFields(addr types.ShippingAddress) []string {
	required := map[string]string{
		"email":       addr.Email,
		"first_name":  addr.FirstName,
		"last_name":   addr.LastName,
		"line1":       addr.Line1,
		"city":        addr.City,
		"postal_code": addr.PostalCode,
		"country":     addr.Country,
	}

	missing := []string{}
	for _, field := range []string{"email", "first_name", "last_name", "line1", "city", "postal_code", "country"} {
		if strings.TrimSpace(required[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
