package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// OrderLineItem captures the snapshot of each item within an order.
type OrderLineItem struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID   `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID   `gorm:"column:product_id;type:uuid;not null"`
	Name           string      `gorm:"column:name;not null"`
	Category       string      `gorm:"column:category;not null"`
	UnitPriceCents types.Cents `gorm:"column:unit_price_cents;not null"`
	Quantity       int         `gorm:"column:quantity;not null"`
	TotalCents     types.Cents `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
}
