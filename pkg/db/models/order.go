package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// Order is the durable record produced by a completed checkout.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	SessionID       *string               `gorm:"column:session_id"`
	IdempotencyKey  string                `gorm:"column:idempotency_key;not null;uniqueIndex:orders_idempotency_key_idx"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null"`
	Currency        enums.Currency        `gorm:"column:currency;type:text;not null"`
	ShippingMethod  enums.ShippingMethod  `gorm:"column:shipping_method;type:text;not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;serializer:json"`
	SubtotalCents   types.Cents           `gorm:"column:subtotal_cents;not null"`
	ShippingCents   types.Cents           `gorm:"column:shipping_cents;not null"`
	TotalCents      types.Cents           `gorm:"column:total_cents;not null"`
	PointsAwarded   int                   `gorm:"column:points_awarded;not null"`
	Items           []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayNumber is the truncated identifier shown on the confirmation page.
func (o Order) DisplayNumber() string {
	id := o.ID.String()
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
