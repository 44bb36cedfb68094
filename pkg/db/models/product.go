package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// Product represents a catalog listing.
type Product struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name           string                `gorm:"column:name;not null"`
	Slug           string                `gorm:"column:slug;not null;uniqueIndex"`
	Description    *string               `gorm:"column:description"`
	Category       enums.ProductCategory `gorm:"column:category;type:text;not null"`
	Terpenes       pq.StringArray        `gorm:"column:terpenes;serializer:json"`
	CBDPercent     *float64              `gorm:"column:cbd_percent;type:numeric(5,2)"`
	PriceCents     types.Cents           `gorm:"column:price_cents;not null"`
	SalePriceCents *types.Cents          `gorm:"column:sale_price_cents"`
	Stock          int                   `gorm:"column:stock;not null"`
	IsActive       bool                  `gorm:"column:is_active;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveUnitPriceCents is the sale price when present and lower than the
// regular price, otherwise the regular price.
func (p Product) EffectiveUnitPriceCents() types.Cents {
	if p.SalePriceCents != nil && *p.SalePriceCents < p.PriceCents {
		return *p.SalePriceCents
	}
	return p.PriceCents
}
