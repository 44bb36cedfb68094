package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/api/responses"
	"github.com/verdantlabs/leafroom-backend/api/validators"
	"github.com/verdantlabs/leafroom-backend/internal/orders"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

type orderLineView struct {
	ProductID      uuid.UUID   `json:"product_id"`
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	UnitPriceCents types.Cents `json:"unit_price_cents"`
	Quantity       int         `json:"quantity"`
	TotalCents     types.Cents `json:"total_cents"`
}

type orderView struct {
	ID             uuid.UUID             `json:"id"`
	Number         string                `json:"number"`
	Status         string                `json:"status"`
	Currency       string                `json:"currency"`
	ShippingMethod string                `json:"shipping_method"`
	PaymentMethod  string                `json:"payment_method"`
	Address        types.ShippingAddress `json:"shipping_address"`
	SubtotalCents  types.Cents           `json:"subtotal_cents"`
	ShippingCents  types.Cents           `json:"shipping_cents"`
	TotalCents     types.Cents           `json:"total_cents"`
	PointsAwarded  int                   `json:"points_awarded"`
	Items          []orderLineView       `json:"items"`
	PlacedAt       time.Time             `json:"placed_at"`
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:             order.ID,
		Number:         order.DisplayNumber(),
		Status:         order.Status.String(),
		Currency:       order.Currency.String(),
		ShippingMethod: order.ShippingMethod.String(),
		PaymentMethod:  order.PaymentMethod.String(),
		Address:        order.ShippingAddress,
		SubtotalCents:  order.SubtotalCents,
		ShippingCents:  order.ShippingCents,
		TotalCents:     order.TotalCents,
		PointsAwarded:  order.PointsAwarded,
		Items:          make([]orderLineView, 0, len(order.Items)),
		PlacedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderLineView{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Category:       item.Category,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.TotalCents,
		})
	}
	return view
}

func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(
			r.Context(),
			userID,
			validators.QueryInt(r, "limit", 20),
			validators.QueryInt(r, "offset", 0),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]orderView, 0, len(list))
		for i := range list {
			views = append(views, newOrderView(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"orders": views})
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
