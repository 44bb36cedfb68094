package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

func testProduct(price types.Cents, sale *types.Cents, stock int) models.Product {
	return models.Product{
		ID:             uuid.New(),
		Name:           "Full Spectrum Oil 10%",
		Slug:           "full-spectrum-oil-10",
		Category:       "oils",
		PriceCents:     price,
		SalePriceCents: sale,
		Stock:          stock,
		IsActive:       true,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mgr, err := NewManager(NewMemoryStorage(), nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return mgr.ForKey(context.Background(), "session:test")
}

func TestAddItemNewLine(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(5000, nil, 10)

	if err := store.AddItem(context.Background(), product, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	if got := store.SubtotalCents(); got != 5000 {
		t.Fatalf("subtotal = %d, want 5000", got)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(5000, nil, 10)

	if err := store.AddItem(context.Background(), product, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddItem(context.Background(), product, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", items[0].Quantity)
	}
	if got := store.SubtotalCents(); got != 15000 {
		t.Fatalf("subtotal = %d, want 15000", got)
	}
}

func TestAddItemSplitEqualsSingleAdd(t *testing.T) {
	t.Parallel()

	product := testProduct(1200, nil, 20)

	split := newTestStore(t)
	if err := split.AddItem(context.Background(), product, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := split.AddItem(context.Background(), product, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	single := newTestStore(t)
	if err := single.AddItem(context.Background(), product, 5); err != nil {
		t.Fatalf("add: %v", err)
	}

	if split.Count() != single.Count() || split.SubtotalCents() != single.SubtotalCents() {
		t.Fatalf("split adds diverged: %d/%d vs %d/%d",
			split.Count(), split.SubtotalCents(), single.Count(), single.SubtotalCents())
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(1000, nil, 5)

	for _, qty := range []int{0, -3} {
		err := store.AddItem(context.Background(), product, qty)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("qty %d: expected validation error, got %v", qty, err)
		}
	}
	if len(store.Items()) != 0 {
		t.Fatal("rejected adds must not create lines")
	}
}

func TestAddItemClampsToStock(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(1000, nil, 4)

	if err := store.AddItem(context.Background(), product, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddItem(context.Background(), product, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := store.Items()
	if items[0].Quantity != 4 {
		t.Fatalf("quantity = %d, want clamp at stock 4", items[0].Quantity)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(1000, nil, 0)

	err := store.AddItem(context.Background(), product, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}
}

func TestSalePriceUsedWhenLower(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sale := types.Cents(3500)
	product := testProduct(5000, &sale, 10)

	if err := store.AddItem(context.Background(), product, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := store.SubtotalCents(); got != 7000 {
		t.Fatalf("subtotal = %d, want 7000 (sale price)", got)
	}
}

func TestSalePriceIgnoredWhenHigher(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sale := types.Cents(6000)
	product := testProduct(5000, &sale, 10)

	if err := store.AddItem(context.Background(), product, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := store.SubtotalCents(); got != 5000 {
		t.Fatalf("subtotal = %d, want 5000 (regular price)", got)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(5000, nil, 10)

	if err := store.AddItem(context.Background(), product, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, qty := range []int{0, -5} {
		store.UpdateQuantity(context.Background(), product.ID, qty)
		if len(store.Items()) != 0 {
			t.Fatalf("qty %d must remove the line", qty)
		}
		if got := store.SubtotalCents(); got != 0 {
			t.Fatalf("subtotal = %d, want 0", got)
		}
		// restore for the next round
		if qty == 0 {
			if err := store.AddItem(context.Background(), product, 3); err != nil {
				t.Fatalf("re-add: %v", err)
			}
		}
	}
}

func TestUpdateQuantityReplacesAndClamps(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(1000, nil, 5)

	if err := store.AddItem(context.Background(), product, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	store.UpdateQuantity(context.Background(), product.ID, 3)
	if store.Items()[0].Quantity != 3 {
		t.Fatalf("quantity not replaced")
	}

	store.UpdateQuantity(context.Background(), product.ID, 99)
	if store.Items()[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want clamp at stock 5", store.Items()[0].Quantity)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(1000, nil, 5)

	if err := store.AddItem(context.Background(), product, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	store.RemoveItem(context.Background(), product.ID)
	store.RemoveItem(context.Background(), product.ID)

	if len(store.Items()) != 0 {
		t.Fatal("expected empty cart")
	}
}

func TestClearKeepsOpenFlag(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	product := testProduct(1000, nil, 5)

	if err := store.AddItem(context.Background(), product, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	store.Open()
	store.Clear(context.Background())

	if len(store.Items()) != 0 {
		t.Fatal("clear must empty the items")
	}
	if !store.IsOpen() {
		t.Fatal("clear must not touch the open flag")
	}
}

func TestNoDuplicateLinesPerProduct(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		product := testProduct(types.Cents(1000*(i+1)), nil, 10)
		for j := 0; j < 4; j++ {
			if err := store.AddItem(context.Background(), product, 1); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
	}

	seen := map[uuid.UUID]bool{}
	for _, item := range store.Items() {
		if seen[item.ProductID] {
			t.Fatalf("duplicate line for product %s", item.ProductID)
		}
		seen[item.ProductID] = true
		if item.Quantity < 1 {
			t.Fatalf("line quantity %d < 1", item.Quantity)
		}
	}
}

func TestPersistReloadRoundTrip(t *testing.T) {
	t.Parallel()

	storage := NewMemoryStorage()
	mgr, err := NewManager(storage, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	store := mgr.ForKey(context.Background(), "session:roundtrip")
	first := testProduct(5000, nil, 10)
	second := testProduct(1200, nil, 8)
	if err := store.AddItem(context.Background(), first, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddItem(context.Background(), second, 5); err != nil {
		t.Fatalf("add: %v", err)
	}

	reloaded := mgr.ForKey(context.Background(), "session:roundtrip")

	want := map[uuid.UUID]int{first.ID: 2, second.ID: 5}
	items := reloaded.Items()
	if len(items) != len(want) {
		t.Fatalf("expected %d lines after reload, got %d", len(want), len(items))
	}
	for _, item := range items {
		if want[item.ProductID] != item.Quantity {
			t.Fatalf("line %s quantity %d, want %d", item.ProductID, item.Quantity, want[item.ProductID])
		}
	}
	if reloaded.IsOpen() {
		t.Fatal("open flag must not be persisted")
	}
}

func TestCorruptMirrorStartsEmpty(t *testing.T) {
	t.Parallel()

	storage := &corruptStorage{}
	mgr, err := NewManager(storage, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	store := mgr.ForKey(context.Background(), "session:corrupt")
	if len(store.Items()) != 0 {
		t.Fatal("corrupt mirror must hydrate as empty")
	}
}

type corruptStorage struct{}

func (corruptStorage) Load(context.Context, string) ([]Item, error) {
	return nil, fmt.Errorf("unreadable payload")
}

func (corruptStorage) Save(context.Context, string, []Item) error { return nil }
