package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/leafroom-backend/internal/cart"
	"github.com/verdantlabs/leafroom-backend/internal/pricing"
	"github.com/verdantlabs/leafroom-backend/pkg/db"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// Owner scopes order reads to the user or guest session the order belongs to.
type Owner struct {
	UserID    *uuid.UUID
	SessionID *string
}

// PlaceOrderInput is everything needed to turn a priced cart into a durable
// order. The idempotency key is generated client side when the checkout
// draft is created, so retries of the same draft carry the same key.
type PlaceOrderInput struct {
	IdempotencyKey  string
	UserID          *uuid.UUID
	SessionID       *string
	Items           []cart.Item
	ShippingAddress types.ShippingAddress
	ShippingMethod  enums.ShippingMethod
	PaymentMethod   enums.PaymentMethod
	Breakdown       pricing.Breakdown
}

// Service places and reads orders.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID, owner Owner) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
}

type service struct {
	repo   Repository
	client *db.Client
	calc   *pricing.Calculator
	logg   *logger.Logger
}

// NewService wires the order service.
func NewService(repo Repository, client *db.Client, calc *pricing.Calculator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "db client required")
	}
	if calc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing calculator required")
	}
	return &service{repo: repo, client: client, calc: calc, logg: logg}, nil
}

// PlaceOrder writes the order, its line items, the stock decrements and the
// loyalty award in one transaction. Submitting the same idempotency key
// again returns the order placed the first time.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByIdempotencyKey(ctx, input.IdempotencyKey); err == nil {
		return existing, nil
	}

	order := s.buildOrder(input)

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, item := range input.Items {
			if err := txRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := txRepo.Create(ctx, order); err != nil {
			return err
		}
		if input.UserID != nil && order.PointsAwarded > 0 {
			return txRepo.AddLoyaltyPoints(ctx, *input.UserID, order.PointsAwarded)
		}
		return nil
	})
	if err != nil {
		// A concurrent retry with the same key may win the race; the order
		// it placed is the answer for this one too.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeIdempotency {
			return s.repo.FindByIdempotencyKey(ctx, input.IdempotencyKey)
		}
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order placed")
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID, owner Owner) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownerMatches(order, owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) buildOrder(input PlaceOrderInput) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		SessionID:       input.SessionID,
		IdempotencyKey:  input.IdempotencyKey,
		Status:          enums.OrderStatusPlaced,
		Currency:        input.Breakdown.Currency,
		ShippingMethod:  input.ShippingMethod,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		SubtotalCents:   input.Breakdown.SubtotalCents,
		ShippingCents:   input.Breakdown.ShippingCents,
		TotalCents:      input.Breakdown.TotalCents,
	}
	if input.UserID != nil {
		order.PointsAwarded = s.calc.LoyaltyPoints(order.TotalCents)
	}

	for _, item := range input.Items {
		unit := item.Product.EffectiveUnitPriceCents()
		order.Items = append(order.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			Name:           item.Product.Name,
			Category:       item.Product.Category.String(),
			UnitPriceCents: unit,
			Quantity:       item.Quantity,
			TotalCents:     unit * types.Cents(item.Quantity),
		})
	}
	return order
}

func validatePlaceOrder(input PlaceOrderInput) error {
	if input.IdempotencyKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cannot place an order for an empty cart")
	}
	if !input.ShippingMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	var subtotal types.Cents
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		subtotal += item.Product.EffectiveUnitPriceCents() * types.Cents(item.Quantity)
	}
	if subtotal != input.Breakdown.SubtotalCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal does not match cart contents")
	}
	if input.Breakdown.TotalCents != input.Breakdown.SubtotalCents+input.Breakdown.ShippingCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "total does not match subtotal plus shipping")
	}
	return nil
}

func ownerMatches(order *models.Order, owner Owner) bool {
	if order.UserID != nil {
		return owner.UserID != nil && *owner.UserID == *order.UserID
	}
	if order.SessionID != nil {
		return owner.SessionID != nil && *owner.SessionID == *order.SessionID
	}
	return false
}
