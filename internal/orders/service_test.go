package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/internal/cart"
	"github.com/verdantlabs/leafroom-backend/internal/pricing"
	"github.com/verdantlabs/leafroom-backend/pkg/config"
	"github.com/verdantlabs/leafroom-backend/pkg/db"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

func newTestClient(t *testing.T) *db.Client {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	cfg := config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Driver: "sqlite",
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderLineItem{},
	); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return client
}

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()

	client := newTestClient(t)
	repo, err := NewRepository(client)
	if err != nil {
		t.Fatalf("repository: %v", err)
	}
	calc := pricing.NewCalculator(
		config.ShippingConfig{StandardRateCents: 495, ExpressRateCents: 995, FreeThresholdCents: 5000},
		config.LoyaltyConfig{EurosPerPoint: 20},
	)
	svc, err := NewService(repo, client, calc, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, client
}

func seedProduct(t *testing.T, client *db.Client, price types.Cents, stock int) models.Product {
	t.Helper()

	product := models.Product{
		ID:         uuid.New(),
		Name:       "CBD Muscle Balm",
		Slug:       "cbd-muscle-balm-" + uuid.NewString()[:8],
		Category:   enums.CategoryCosmetics,
		PriceCents: price,
		Stock:      stock,
		IsActive:   true,
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return product
}

func seedUser(t *testing.T, client *db.Client) models.User {
	t.Helper()

	user := models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "irrelevant",
		FirstName:    "Jo",
		LastName:     "de Vries",
		IsActive:     true,
	}
	if err := client.DB().Create(&user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func placeInput(user *models.User, items []cart.Item, breakdown pricing.Breakdown) PlaceOrderInput {
	input := PlaceOrderInput{
		IdempotencyKey: uuid.NewString(),
		Items:          items,
		ShippingAddress: types.ShippingAddress{
			Email:      "jo@example.com",
			FirstName:  "Jo",
			LastName:   "de Vries",
			Line1:      "Keizersgracht 1",
			City:       "Amsterdam",
			PostalCode: "1015 CN",
			Country:    "NL",
		},
		ShippingMethod: enums.ShippingMethodStandard,
		PaymentMethod:  enums.PaymentMethodIdeal,
		Breakdown:      breakdown,
	}
	if user != nil {
		input.UserID = &user.ID
	} else {
		session := "sess-guest"
		input.SessionID = &session
	}
	return input
}

func TestPlaceOrderPersistsOrderAndSideEffects(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)
	product := seedProduct(t, client, 3000, 10)

	items := []cart.Item{{ProductID: product.ID, Product: product, Quantity: 2}}
	input := placeInput(&user, items, pricing.Breakdown{
		SubtotalCents: 6000,
		ShippingCents: 0,
		TotalCents:    6000,
		Method:        enums.ShippingMethodStandard,
		Currency:      enums.CurrencyEUR,
	})

	order, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("status = %s, want placed", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || order.Items[0].TotalCents != 6000 {
		t.Fatalf("unexpected line items: %+v", order.Items)
	}
	if order.PointsAwarded != 3 {
		t.Fatalf("points awarded = %d, want 3", order.PointsAwarded)
	}
	if len(order.DisplayNumber()) != 8 {
		t.Fatalf("display number %q, want 8 chars", order.DisplayNumber())
	}

	var stored models.Product
	if err := client.DB().First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reloading product: %v", err)
	}
	if stored.Stock != 8 {
		t.Fatalf("stock = %d, want 8 after decrement", stored.Stock)
	}

	var storedUser models.User
	if err := client.DB().First(&storedUser, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reloading user: %v", err)
	}
	if storedUser.LoyaltyPoints != 3 {
		t.Fatalf("loyalty points = %d, want 3", storedUser.LoyaltyPoints)
	}
}

func TestPlaceOrderIdempotentReplay(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)
	product := seedProduct(t, client, 2000, 5)

	items := []cart.Item{{ProductID: product.ID, Product: product, Quantity: 1}}
	input := placeInput(&user, items, pricing.Breakdown{
		SubtotalCents: 2000,
		ShippingCents: 495,
		TotalCents:    2495,
		Method:        enums.ShippingMethodStandard,
		Currency:      enums.CurrencyEUR,
	})

	first, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("first place: %v", err)
	}
	second, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("replay produced a different order: %s vs %s", first.ID, second.ID)
	}

	var count int64
	client.DB().Model(&models.Order{}).Count(&count)
	if count != 1 {
		t.Fatalf("order count = %d, want 1", count)
	}

	var stored models.Product
	client.DB().First(&stored, "id = ?", product.ID)
	if stored.Stock != 4 {
		t.Fatalf("stock = %d, want decremented once to 4", stored.Stock)
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)
	inStock := seedProduct(t, client, 1000, 5)
	scarce := seedProduct(t, client, 1000, 1)

	items := []cart.Item{
		{ProductID: inStock.ID, Product: inStock, Quantity: 2},
		{ProductID: scarce.ID, Product: scarce, Quantity: 3},
	}
	input := placeInput(&user, items, pricing.Breakdown{
		SubtotalCents: 5000,
		ShippingCents: 0,
		TotalCents:    5000,
		Method:        enums.ShippingMethodStandard,
		Currency:      enums.CurrencyEUR,
	})

	_, err := svc.PlaceOrder(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}

	var stored models.Product
	client.DB().First(&stored, "id = ?", inStock.ID)
	if stored.Stock != 5 {
		t.Fatalf("stock = %d, want rollback to 5", stored.Stock)
	}
	var count int64
	client.DB().Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("order count = %d, want 0 after rollback", count)
	}
}

func TestPlaceOrderGuestGetsNoPoints(t *testing.T) {
	svc, client := newTestService(t)
	product := seedProduct(t, client, 10000, 3)

	items := []cart.Item{{ProductID: product.ID, Product: product, Quantity: 1}}
	input := placeInput(nil, items, pricing.Breakdown{
		SubtotalCents: 10000,
		ShippingCents: 0,
		TotalCents:    10000,
		Method:        enums.ShippingMethodStandard,
		Currency:      enums.CurrencyEUR,
	})

	order, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.PointsAwarded != 0 {
		t.Fatalf("points awarded = %d, want 0 for guests", order.PointsAwarded)
	}
	if order.SessionID == nil || *order.SessionID != "sess-guest" {
		t.Fatalf("session id not carried: %v", order.SessionID)
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)

	input := placeInput(&user, nil, pricing.Breakdown{})
	_, err := svc.PlaceOrder(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty-cart error, got %v", err)
	}
}

func TestPlaceOrderRejectsMismatchedTotals(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)
	product := seedProduct(t, client, 3000, 10)

	items := []cart.Item{{ProductID: product.ID, Product: product, Quantity: 1}}
	input := placeInput(&user, items, pricing.Breakdown{
		SubtotalCents: 9999,
		ShippingCents: 0,
		TotalCents:    9999,
		Method:        enums.ShippingMethodStandard,
		Currency:      enums.CurrencyEUR,
	})

	_, err := svc.PlaceOrder(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)
	stranger := seedUser(t, client)
	product := seedProduct(t, client, 2500, 4)

	items := []cart.Item{{ProductID: product.ID, Product: product, Quantity: 1}}
	input := placeInput(&user, items, pricing.Breakdown{
		SubtotalCents: 2500,
		ShippingCents: 495,
		TotalCents:    2995,
		Method:        enums.ShippingMethodStandard,
		Currency:      enums.CurrencyEUR,
	})
	order, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	got, err := svc.GetOrder(context.Background(), order.ID, Owner{UserID: &user.ID})
	if err != nil {
		t.Fatalf("owner fetch: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("fetched wrong order")
	}

	_, err = svc.GetOrder(context.Background(), order.ID, Owner{UserID: &stranger.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for stranger, got %v", err)
	}
}

func TestListOrdersReturnsOwnOrdersNewestFirst(t *testing.T) {
	svc, client := newTestService(t)
	user := seedUser(t, client)
	product := seedProduct(t, client, 1500, 20)

	for i := 0; i < 3; i++ {
		items := []cart.Item{{ProductID: product.ID, Product: product, Quantity: 1}}
		input := placeInput(&user, items, pricing.Breakdown{
			SubtotalCents: 1500,
			ShippingCents: 495,
			TotalCents:    1995,
			Method:        enums.ShippingMethodStandard,
			Currency:      enums.CurrencyEUR,
		})
		if _, err := svc.PlaceOrder(context.Background(), input); err != nil {
			t.Fatalf("place order %d: %v", i, err)
		}
	}

	list, err := svc.ListOrders(context.Background(), user.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list length = %d, want 3", len(list))
	}
	for _, order := range list {
		if len(order.Items) != 1 {
			t.Fatalf("expected line items preloaded")
		}
	}
}
