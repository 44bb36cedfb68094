package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/api/responses"
	"github.com/verdantlabs/leafroom-backend/api/validators"
	"github.com/verdantlabs/leafroom-backend/internal/catalog"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

type productView struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Slug           string       `json:"slug"`
	Description    *string      `json:"description,omitempty"`
	Category       string       `json:"category"`
	Terpenes       []string     `json:"terpenes"`
	CBDPercent     *float64     `json:"cbd_percent,omitempty"`
	PriceCents     types.Cents  `json:"price_cents"`
	SalePriceCents *types.Cents `json:"sale_price_cents,omitempty"`
	UnitPriceCents types.Cents  `json:"unit_price_cents"`
	InStock        bool         `json:"in_stock"`
}

type productListView struct {
	Products []productView `json:"products"`
	Total    int64         `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

func newProductView(product models.Product) productView {
	return productView{
		ID:             product.ID,
		Name:           product.Name,
		Slug:           product.Slug,
		Description:    product.Description,
		Category:       product.Category.String(),
		Terpenes:       product.Terpenes,
		CBDPercent:     product.CBDPercent,
		PriceCents:     product.PriceCents,
		SalePriceCents: product.SalePriceCents,
		UnitPriceCents: product.EffectiveUnitPriceCents(),
		InStock:        product.Stock > 0,
	}
}

func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.List(r.Context(), catalog.ListParams{
			Category: validators.QueryString(r, "category"),
			Sort:     validators.QueryString(r, "sort"),
			Limit:    validators.QueryInt(r, "limit", 0),
			Offset:   validators.QueryInt(r, "offset", 0),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := productListView{
			Products: make([]productView, 0, len(page.Products)),
			Total:    page.Total,
			Limit:    page.Limit,
			Offset:   page.Offset,
		}
		for _, product := range page.Products {
			view.Products = append(view.Products, newProductView(product))
		}
		responses.WriteSuccess(w, view)
	}
}

// ProductGet resolves a product by id, falling back to slug lookup so
// storefront URLs stay human readable.
func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "productKey")

		var (
			product *models.Product
			err     error
		)
		if id, parseErr := uuid.Parse(key); parseErr == nil {
			product, err = svc.GetByID(r.Context(), id)
		} else {
			product, err = svc.GetBySlug(r.Context(), key)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(*product))
	}
}
