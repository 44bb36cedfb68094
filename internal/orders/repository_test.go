package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	"github.com/verdantlabs/leafroom-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

func testOrder(userID uuid.UUID, key string) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		UserID:         &userID,
		IdempotencyKey: key,
		Status:         enums.OrderStatusPlaced,
		Currency:       enums.CurrencyEUR,
		ShippingMethod: enums.ShippingMethodStandard,
		PaymentMethod:  enums.PaymentMethodIdeal,
		ShippingAddress: types.ShippingAddress{
			Email:      "repo@example.com",
			FirstName:  "Renee",
			LastName:   "Koster",
			Line1:      "Singel 20",
			City:       "Amsterdam",
			PostalCode: "1013 GA",
			Country:    "NL",
		},
		SubtotalCents: 2000,
		ShippingCents: 495,
		TotalCents:    2495,
	}
}

func TestRepositoryCreateDuplicateKey(t *testing.T) {
	client := newTestClient(t)
	repo, err := NewRepository(client)
	require.NoError(t, err)

	user := seedUser(t, client)
	ctx := context.Background()

	first := testOrder(user.ID, "draft-1")
	require.NoError(t, repo.Create(ctx, first))

	dup := testOrder(user.ID, "draft-1")
	err = repo.Create(ctx, dup)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeIdempotency, typed.Code())

	found, err := repo.FindByIdempotencyKey(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestRepositoryFindByIdempotencyKeyMissing(t *testing.T) {
	client := newTestClient(t)
	repo, err := NewRepository(client)
	require.NoError(t, err)

	_, err = repo.FindByIdempotencyKey(context.Background(), "never-used")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRepositoryDecrementStockGuard(t *testing.T) {
	client := newTestClient(t)
	repo, err := NewRepository(client)
	require.NoError(t, err)

	product := seedProduct(t, client, 1000, 3)
	ctx := context.Background()

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))

	var stored models.Product
	require.NoError(t, client.DB().First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 1, stored.Stock)

	err = repo.DecrementStock(ctx, product.ID, 2)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeOutOfStock, typed.Code())

	require.NoError(t, client.DB().First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 1, stored.Stock, "failed decrement must not touch stock")
}

func TestRepositoryAddLoyaltyPointsAccumulates(t *testing.T) {
	client := newTestClient(t)
	repo, err := NewRepository(client)
	require.NoError(t, err)

	user := seedUser(t, client)
	ctx := context.Background()

	require.NoError(t, repo.AddLoyaltyPoints(ctx, user.ID, 3))
	require.NoError(t, repo.AddLoyaltyPoints(ctx, user.ID, 2))

	var stored models.User
	require.NoError(t, client.DB().First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, 5, stored.LoyaltyPoints)
}
