package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// ListParams are the raw, unvalidated browse inputs from the HTTP layer.
type ListParams struct {
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// Page is one page of catalog results.
type Page struct {
	Products []models.Product
	Total    int64
	Limit    int
	Offset   int
}

// Service exposes catalog reads to the rest of the application.
type Service interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*Page, error) {
	query := ListQuery{
		Sort:   SortNewest,
		Limit:  params.Limit,
		Offset: params.Offset,
	}

	if params.Category != "" {
		category, err := enums.ParseProductCategory(params.Category)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category").
				WithDetails(map[string]any{"category": params.Category})
		}
		query.Category = &category
	}

	switch params.Sort {
	case "", string(SortNewest):
	case string(SortPriceAsc):
		query.Sort = SortPriceAsc
	case string(SortPriceDesc):
		query.Sort = SortPriceDesc
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order").
			WithDetails(map[string]any{"sort": params.Sort})
	}

	if query.Limit <= 0 || query.Limit > maxPageSize {
		query.Limit = defaultPageSize
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	products, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Page{
		Products: products,
		Total:    total,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	return s.repo.FindBySlug(ctx, slug)
}
