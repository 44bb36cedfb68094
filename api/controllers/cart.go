package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/api/middleware"
	"github.com/verdantlabs/leafroom-backend/api/responses"
	"github.com/verdantlabs/leafroom-backend/api/validators"
	cartsvc "github.com/verdantlabs/leafroom-backend/internal/cart"
	"github.com/verdantlabs/leafroom-backend/internal/catalog"
	"github.com/verdantlabs/leafroom-backend/internal/pricing"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

type cartAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type cartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

type cartLineView struct {
	ProductID      uuid.UUID   `json:"product_id"`
	Name           string      `json:"name"`
	Slug           string      `json:"slug"`
	UnitPriceCents types.Cents `json:"unit_price_cents"`
	Quantity       int         `json:"quantity"`
	LineTotalCents types.Cents `json:"line_total_cents"`
}

type cartView struct {
	Items         []cartLineView `json:"items"`
	Count         int            `json:"count"`
	SubtotalCents types.Cents    `json:"subtotal_cents"`
}

func newCartView(store *cartsvc.Store) cartView {
	items := store.Items()
	view := cartView{
		Items:         make([]cartLineView, 0, len(items)),
		Count:         store.Count(),
		SubtotalCents: store.SubtotalCents(),
	}
	for _, item := range items {
		unit := item.Product.EffectiveUnitPriceCents()
		view.Items = append(view.Items, cartLineView{
			ProductID:      item.ProductID,
			Name:           item.Product.Name,
			Slug:           item.Product.Slug,
			UnitPriceCents: unit,
			Quantity:       item.Quantity,
			LineTotalCents: unit * types.Cents(item.Quantity),
		})
	}
	return view
}

func cartForRequest(manager *cartsvc.Manager, r *http.Request) (*cartsvc.Store, error) {
	key := middleware.CartKeyFromContext(r.Context())
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart context missing")
	}
	return manager.ForKey(r.Context(), key), nil
}

func CartFetch(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

func CartAddItem(manager *cartsvc.Manager, catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalogSvc.GetByID(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.AddItem(r.Context(), *product, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

func CartUpdateItem(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.UpdateQuantity(r.Context(), productID, payload.Quantity)
		responses.WriteSuccess(w, newCartView(store))
	}
}

func CartRemoveItem(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.RemoveItem(r.Context(), productID)
		responses.WriteSuccess(w, newCartView(store))
	}
}

func CartClear(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Clear(r.Context())
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartQuote prices the current cart for a shipping method without touching
// any state.
func CartQuote(manager *cartsvc.Manager, calc *pricing.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := enums.ShippingMethodStandard
		if raw := validators.QueryString(r, "shipping_method"); raw != "" {
			parsed, parseErr := enums.ParseShippingMethod(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid shipping method"))
				return
			}
			method = parsed
		}

		quote, err := calc.Quote(store.SubtotalCents(), method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"cart":  newCartView(store),
			"quote": quote,
		})
	}
}
