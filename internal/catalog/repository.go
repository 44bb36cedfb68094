package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/leafroom-backend/pkg/db"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
)

// ListQuery filters and pages a catalog listing. Only active products are
// ever returned.
type ListQuery struct {
	Category *enums.ProductCategory
	Sort     Sort
	Limit    int
	Offset   int
}

// Sort orders a catalog listing.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// Repository reads catalog products.
type Repository interface {
	List(ctx context.Context, query ListQuery) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type repository struct {
	conn *gorm.DB
}

// NewRepository builds the catalog repository on the shared client.
func NewRepository(client *db.Client) (Repository, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "db client required")
	}
	return &repository{conn: client.DB()}, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Product, int64, error) {
	base := r.conn.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true)
	if query.Category != nil {
		base = base.Where("category = ?", *query.Category)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting products")
	}

	order := "created_at DESC"
	switch query.Sort {
	case SortPriceAsc:
		order = "COALESCE(sale_price_cents, price_cents) ASC"
	case SortPriceDesc:
		order = "COALESCE(sale_price_cents, price_cents) DESC"
	}

	var list []models.Product
	err := base.
		Order(order).
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}
	return list, total, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.conn.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finding product")
	}
	return &product, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.conn.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finding product by slug")
	}
	return &product, nil
}
