package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/api/middleware"
	"github.com/verdantlabs/leafroom-backend/api/responses"
	"github.com/verdantlabs/leafroom-backend/api/validators"
	cartsvc "github.com/verdantlabs/leafroom-backend/internal/cart"
	"github.com/verdantlabs/leafroom-backend/internal/checkout"
	"github.com/verdantlabs/leafroom-backend/internal/orders"
	"github.com/verdantlabs/leafroom-backend/internal/pricing"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/metrics"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

type checkoutAddress struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone,omitempty"`
}

type checkoutRequest struct {
	Contact        checkoutAddress `json:"contact" validate:"required"`
	ShippingMethod string          `json:"shipping_method" validate:"required,oneof=standard express"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=credit_card paypal ideal"`
}

type checkoutResponse struct {
	Step          string            `json:"step"`
	OrderID       uuid.UUID         `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	Breakdown     pricing.Breakdown `json:"breakdown"`
	PointsAwarded int               `json:"points_awarded"`
}

// Checkout drives a full checkout for the request's cart: contact details,
// shipping choice and payment in one submission. The order placement is
// idempotent on the draft, and the route also sits behind the redis replay
// middleware keyed on the Idempotency-Key header.
func Checkout(
	manager *cartsvc.Manager,
	calc *pricing.Calculator,
	ordersSvc orders.Service,
	stats *metrics.CheckoutMetrics,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shippingMethod, err := enums.ParseShippingMethod(payload.ShippingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}
		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		seq, err := checkout.NewSequencer(store, calc, ordersSvc, stats, logg, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address := types.ShippingAddress{
			Email:      payload.Contact.Email,
			FirstName:  payload.Contact.FirstName,
			LastName:   payload.Contact.LastName,
			Line1:      payload.Contact.Line1,
			City:       payload.Contact.City,
			PostalCode: payload.Contact.PostalCode,
			Country:    payload.Contact.Country,
			Phone:      payload.Contact.Phone,
		}

		if err := seq.SubmitInformation(r.Context(), address); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := seq.SubmitShipping(r.Context(), shippingMethod); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := seq.Quote()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := seq.SubmitPayment(r.Context(), paymentMethod); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft := seq.Current()
		order, err := ordersSvc.GetOrder(r.Context(), *draft.OrderID, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Step:          draft.Step.String(),
			OrderID:       order.ID,
			OrderNumber:   order.DisplayNumber(),
			Breakdown:     quote,
			PointsAwarded: order.PointsAwarded,
		})
	}
}

func ownerFromRequest(r *http.Request) (orders.Owner, error) {
	owner := orders.Owner{}

	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return owner, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		owner.UserID = &userID
		return owner, nil
	}

	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		owner.SessionID = &sessionID
		return owner, nil
	}

	return owner, pkgerrors.New(pkgerrors.CodeInternal, "request has no owner context")
}
